package helio

import (
	"bytes"
	"encoding/binary"

	"github.com/learn-decentralized-systems/toytlv"
	"github.com/pkg/errors"
)

// Every value the store persists is a delta payload prefixed with a
// revision stamp: T(rev,src) payload. The stamp orders concurrent writes;
// ties break on payload bytes, then on the writing source.

type Stamp struct {
	Rev int64
	Src uint64
}

var ErrBadStampedValue = errors.New("helio: malformed stamped value")

func SealValue(stamp Stamp, payload []byte) []byte {
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], uint64(stamp.Rev))
	binary.BigEndian.PutUint64(b[8:], stamp.Src)
	return toytlv.Concat(toytlv.Record('T', b[:]), payload)
}

func UnsealValue(data []byte) (stamp Stamp, payload []byte, err error) {
	body, rest, err := toytlv.TakeWary('T', data)
	if err != nil || len(body) != 16 {
		return stamp, nil, ErrBadStampedValue
	}
	stamp.Rev = int64(binary.BigEndian.Uint64(body[:8]))
	stamp.Src = binary.BigEndian.Uint64(body[8:])
	return stamp, rest, nil
}

// lwwMerge picks the winning stamped value: highest revision, then greater
// payload bytes, then greater source. Malformed records lose to anything.
func lwwMerge(vals [][]byte) []byte {
	var win []byte
	var winStamp Stamp
	var winPayload []byte
	for _, rec := range vals {
		stamp, payload, err := UnsealValue(rec)
		if err != nil {
			continue
		}
		if win != nil {
			if stamp.Rev < winStamp.Rev {
				continue
			}
			if stamp.Rev == winStamp.Rev {
				valtie := bytes.Compare(payload, winPayload)
				if valtie < 0 || (valtie == 0 && stamp.Src < winStamp.Src) {
					continue
				}
			}
		}
		win, winStamp, winPayload = rec, stamp, payload
	}
	return win
}

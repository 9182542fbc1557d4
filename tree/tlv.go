package tree

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/learn-decentralized-systems/toytlv"
)

// Binary form, TLV all the way down:
//
//	node:  N( G(tag) P* N* )
//	prop:  P( K(key) value )
//	value: S(utf8) | I(int64be) | F(float64bits) | B(0|1)
//
// Properties are encoded in key order, so the encoding is canonical:
// equal trees produce equal bytes.

var ErrBadNodeRecord = errors.New("helio: malformed node record")

func (n *Node) MarshalTLV() []byte {
	return n.appendTLV(nil)
}

func (n *Node) appendTLV(into []byte) []byte {
	body := toytlv.Record('G', []byte(n.Tag))
	for _, p := range n.sortedProps() {
		body = append(body, appendProp(nil, p)...)
	}
	for _, c := range n.children {
		body = c.appendTLV(body)
	}
	return append(into, toytlv.Record('N', body)...)
}

func appendProp(into []byte, p Prop) []byte {
	var val []byte
	switch v := p.Value.(type) {
	case string:
		val = toytlv.Record('S', []byte(v))
	case int64:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(v))
		val = toytlv.Record('I', b[:])
	case float64:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
		val = toytlv.Record('F', b[:])
	case bool:
		flag := []byte{0}
		if v {
			flag[0] = 1
		}
		val = toytlv.Record('B', flag)
	}
	return append(into, toytlv.Record('P', toytlv.Record('K', []byte(p.Key)), val)...)
}

// UnmarshalTLV parses one node record and returns any trailing bytes.
func UnmarshalTLV(data []byte) (n *Node, rest []byte, err error) {
	body, rest, err := toytlv.TakeWary('N', data)
	if err != nil {
		return nil, data, err
	}
	tag, inner, err := toytlv.TakeWary('G', body)
	if err != nil {
		return nil, data, ErrBadNodeRecord
	}
	n = New(string(tag))
	for len(inner) > 0 {
		lit, recbody, next, e := toytlv.TakeAnyWary(inner)
		if e != nil {
			return nil, data, ErrBadNodeRecord
		}
		switch lit {
		case 'P':
			p, e := parseProp(recbody)
			if e != nil {
				return nil, data, e
			}
			n.props = append(n.props, p)
		case 'N':
			child, _, e := UnmarshalTLV(inner)
			if e != nil {
				return nil, data, e
			}
			n.children = append(n.children, child)
		default:
			return nil, data, ErrBadNodeRecord
		}
		inner = next
	}
	return n, rest, nil
}

func parseProp(body []byte) (p Prop, err error) {
	key, valrec, err := toytlv.TakeWary('K', body)
	if err != nil {
		return p, ErrBadNodeRecord
	}
	p.Key = string(key)
	lit, val, _, err := toytlv.TakeAnyWary(valrec)
	if err != nil {
		return p, ErrBadNodeRecord
	}
	switch lit {
	case 'S':
		p.Value = string(val)
	case 'I':
		if len(val) != 8 {
			return p, ErrBadNodeRecord
		}
		p.Value = int64(binary.BigEndian.Uint64(val))
	case 'F':
		if len(val) != 8 {
			return p, ErrBadNodeRecord
		}
		p.Value = math.Float64frombits(binary.BigEndian.Uint64(val))
	case 'B':
		if len(val) != 1 {
			return p, ErrBadNodeRecord
		}
		p.Value = val[0] != 0
	default:
		return p, ErrBadNodeRecord
	}
	return p, nil
}

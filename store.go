package helio

import (
	"log/slog"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/learn-decentralized-systems/toytlv"
	"github.com/pkg/errors"

	"github.com/itsbrex/helio-workstation/tree"
	"github.com/itsbrex/helio-workstation/utils"
)

// Store persists tracked-item snapshots, one stamped record per delta, in a
// pebble database. Saves go through the merge operator, so replays and
// concurrent writers converge by the per-delta-type policy instead of
// clobbering each other.
//
// Key layout:
//
//	'H' + uuid    -> S(kind), the head record of a tracked item
//	'D' + uuid + deltaType -> T(rev,src) + payload, one facet
type Store struct {
	db     *pebble.DB
	dir    string
	opts   StoreOptions
	cache  *lru.Cache[uuid.UUID, *Snapshot]
	logger utils.Logger
	clock  func() int64
}

type StoreOptions struct {
	// Src identifies this writer in value stamps.
	Src       uint64
	CacheSize int
	Logger    utils.Logger
}

func (o *StoreOptions) SetDefaults() {
	if o.CacheSize == 0 {
		o.CacheSize = 1024
	}
	if o.Logger == nil {
		o.Logger = utils.NewDefaultLogger(slog.LevelWarn)
	}
}

func merger(key, value []byte) (pebble.ValueMerger, error) {
	pma := PebbleMergeAdaptor{
		typ:  deltaKeyType(key),
		vals: [][]byte{value},
	}
	return &pma, nil
}

func OpenStore(dir string, opts StoreOptions) (*Store, error) {
	opts.SetDefaults()
	db, err := pebble.Open(dir, &pebble.Options{
		Merger: &pebble.Merger{
			Name:  "helio.deltas",
			Merge: merger,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "helio: opening snapshot store")
	}
	cache, err := lru.New[uuid.UUID, *Snapshot](opts.CacheSize)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{
		db:     db,
		dir:    dir,
		opts:   opts,
		cache:  cache,
		logger: opts.Logger,
		clock:  func() int64 { return time.Now().UnixNano() },
	}, nil
}

func headKey(id uuid.UUID) []byte {
	key := make([]byte, 0, 17)
	key = append(key, 'H')
	return append(key, id[:]...)
}

func deltaKey(id uuid.UUID, typ DeltaType) []byte {
	key := make([]byte, 0, 17+len(typ))
	key = append(key, 'D')
	key = append(key, id[:]...)
	return append(key, typ...)
}

func deltaKeyType(key []byte) DeltaType {
	if len(key) <= 17 || key[0] != 'D' {
		return ""
	}
	return DeltaType(key[17:])
}

// prefixUpperBound returns the smallest key greater than every key with the
// prefix.
func prefixUpperBound(prefix []byte) []byte {
	bound := append([]byte(nil), prefix...)
	for i := len(bound) - 1; i >= 0; i-- {
		bound[i]++
		if bound[i] != 0 {
			return bound[:i+1]
		}
	}
	return nil
}

// SaveSnapshot captures the item's current delta payloads and merges them
// into the store under the item's identity.
func (s *Store) SaveSnapshot(item TrackedItem) error {
	if s.db == nil {
		return ErrStoreClosed
	}
	snap, err := Capture(item)
	if err != nil {
		return err
	}
	stamp := Stamp{Rev: s.clock(), Src: s.opts.Src}

	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(headKey(snap.id), toytlv.Record('S', []byte(snap.kind)), nil); err != nil {
		return err
	}
	for i, d := range snap.deltas {
		sealed := SealValue(stamp, snap.data[i].MarshalTLV())
		if err := batch.Merge(deltaKey(snap.id, d.Type()), sealed, nil); err != nil {
			return err
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return errors.Wrap(err, "helio: saving snapshot")
	}
	s.cache.Remove(snap.id)
	SnapshotsSaved.WithLabelValues(snap.kind).Inc()
	s.logger.Debug("snapshot saved", "id", snap.id.String(), "kind", snap.kind)
	return nil
}

// LoadSnapshot reassembles the stored version of the item. The result is an
// independent copy; mutating it does not disturb the cache.
func (s *Store) LoadSnapshot(id uuid.UUID) (*Snapshot, error) {
	if s.db == nil {
		return nil, ErrStoreClosed
	}
	if snap, ok := s.cache.Get(id); ok {
		return snap.Copy(), nil
	}

	head, closer, err := s.db.Get(headKey(id))
	if err != nil {
		return nil, ErrItemUnknown
	}
	kind, _, err := toytlv.TakeWary('S', head)
	if err != nil {
		_ = closer.Close()
		return nil, errors.Wrap(err, "helio: bad head record")
	}
	snap := NewSnapshot(id, string(kind))
	_ = closer.Close()

	prefix := deltaKey(id, "")
	it, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer it.Close()
	for it.First(); it.Valid(); it.Next() {
		typ := deltaKeyType(it.Key())
		_, payload, err := UnsealValue(it.Value())
		if err != nil {
			s.logger.Warn("skipping malformed delta record", "id", id.String(), "type", string(typ))
			continue
		}
		node, _, err := tree.UnmarshalTLV(payload)
		if err != nil || !node.Has(string(typ)) {
			s.logger.Warn("skipping mismatched delta payload", "id", id.String(), "type", string(typ))
			continue
		}
		snap.Add(typ, node)
	}

	s.cache.Add(id, snap.Copy())
	SnapshotsLoaded.WithLabelValues(snap.kind).Inc()
	return snap, nil
}

// Checkout loads the stored version of the item and resets the live item to
// it.
func (s *Store) Checkout(item TrackedItem) error {
	snap, err := s.LoadSnapshot(item.UUID())
	if err != nil {
		return err
	}
	return item.ResetStateTo(snap)
}

// ListItems enumerates every tracked item the store holds a version of.
func (s *Store) ListItems() (ids []uuid.UUID, err error) {
	if s.db == nil {
		return nil, ErrStoreClosed
	}
	prefix := []byte{'H'}
	it, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer it.Close()
	for it.First(); it.Valid(); it.Next() {
		key := it.Key()
		if len(key) != 17 {
			continue
		}
		id, err := uuid.FromBytes(key[1:])
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

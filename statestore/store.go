// Package statestore keeps the append-only optimizer-state history of a
// run, keyed by (group, path position, iteration). States are gob-encoded,
// optionally compressed, and checksummed so a corrupted record is detected
// on read rather than silently fed back into the solver.
//
// The history exists for two reasons: the convergence test needs the
// previous iteration's state, and finished runs can be audited post hoc.
// The driver releases the store once results are extracted.
package statestore

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/n0madic/go-elastic-net/core"
)

// Ungrouped is the group key used by single-model runs.
const Ungrouped = ""

// Record is one point of a run's history.
type Record struct {
	Group   string
	PathPos int
	Iter    int
	State   *core.State
}

type entry struct {
	pathPos int
	blob    []byte
	sum     uint64
}

// Store is an in-memory append-only record store. Safe for concurrent use;
// grouped runs append from one goroutine per group.
type Store struct {
	mu    sync.RWMutex
	codec Codec
	recs  map[string][]entry
}

// Option configures a Store.
type Option func(*Store)

// WithCodec sets the compression codec applied to encoded states. The
// default is NoopCodec.
func WithCodec(c Codec) Option {
	return func(s *Store) { s.codec = c }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		codec: NoopCodec{},
		recs:  make(map[string][]entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append adds the state produced at (group, pathPos, iter). Iterations per
// group must arrive densely in order starting at 0; anything else is a
// programming error in the driver and is rejected.
func (s *Store) Append(group string, pathPos, iter int, st *core.State) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(st); err != nil {
		return fmt.Errorf("statestore: encode state: %w", err)
	}
	blob, err := s.codec.Compress(buf.Bytes())
	if err != nil {
		return fmt.Errorf("statestore: compress state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if iter != len(s.recs[group]) {
		return fmt.Errorf("statestore: records are append-only, got iteration %d for group %q with %d records", iter, group, len(s.recs[group]))
	}
	s.recs[group] = append(s.recs[group], entry{pathPos: pathPos, blob: blob, sum: xxhash.Sum64(blob)})
	return nil
}

func (s *Store) decode(group string, iter int, e entry) (*core.State, error) {
	if xxhash.Sum64(e.blob) != e.sum {
		return nil, fmt.Errorf("statestore: record (%q, %d) corrupted", group, iter)
	}
	raw, err := s.codec.Decompress(e.blob)
	if err != nil {
		return nil, fmt.Errorf("statestore: decompress record (%q, %d): %w", group, iter, err)
	}
	st := new(core.State)
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(st); err != nil {
		return nil, fmt.Errorf("statestore: decode record (%q, %d): %w", group, iter, err)
	}
	return st, nil
}

// At returns the state recorded at (group, iter).
func (s *Store) At(group string, iter int) (*core.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	es := s.recs[group]
	if iter < 0 || iter >= len(es) {
		return nil, fmt.Errorf("statestore: no record (%q, %d)", group, iter)
	}
	return s.decode(group, iter, es[iter])
}

// Latest returns the live record for a group: the one with the highest
// iteration index. ok is false when the group has no records.
func (s *Store) Latest(group string) (rec Record, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	es := s.recs[group]
	if len(es) == 0 {
		return Record{}, false, nil
	}
	iter := len(es) - 1
	st, err := s.decode(group, iter, es[iter])
	if err != nil {
		return Record{}, false, err
	}
	return Record{Group: group, PathPos: es[iter].pathPos, Iter: iter, State: st}, true, nil
}

// MaxIteration returns the highest iteration recorded for a group, or -1.
func (s *Store) MaxIteration(group string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recs[group]) - 1
}

// History returns every record of a group in iteration order.
func (s *Store) History(group string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	es := s.recs[group]
	out := make([]Record, len(es))
	for i, e := range es {
		st, err := s.decode(group, i, e)
		if err != nil {
			return nil, err
		}
		out[i] = Record{Group: group, PathPos: e.pathPos, Iter: i, State: st}
	}
	return out, nil
}

// Groups returns the group keys with at least one record, sorted.
func (s *Store) Groups() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.recs))
	for k := range s.recs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Release discards the whole history. Called by the driver once a run is
// terminal and results are extracted.
func (s *Store) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = make(map[string][]entry)
}

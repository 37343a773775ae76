// Package mapping groups metric suites into buckets keyed by feature
// presence and merges partial aggregates produced by independent workers.
//
// A mapping's bucket key set is fixed at construction. Merging two mappings
// requires identical key sets and is associative and commutative with
// respect to the multiset of values collected per bucket and metric, so
// partial aggregates may be folded in any order.
package mapping

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/tidwall/gjson"

	"github.com/Sumatoshi-tech/featstat/pkg/features"
	"github.com/Sumatoshi-tech/featstat/pkg/halstead"
	"github.com/Sumatoshi-tech/featstat/pkg/metrics"
)

// Mapping errors.
var (
	// ErrKeyMismatch indicates two aggregates were built from different bucket layouts.
	ErrKeyMismatch = errors.New("bucket key sets differ")
	// ErrFinalized indicates a mutation of an aggregate that was already exported.
	ErrFinalized = errors.New("mapping is finalized")
	// ErrUnknownBucket indicates a bucket key outside the mapping's key set.
	ErrUnknownBucket = errors.New("unknown bucket")
)

// State is the lifecycle stage of a mapping.
type State int

// Mapping lifecycle: Initialized → Accumulating → Finalized.
const (
	Initialized State = iota
	Accumulating
	Finalized
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Accumulating:
		return "accumulating"
	case Finalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// Bucket is the aggregate of one classification bucket: the metric suite
// plus the summed Halstead base counts of every merged record.
type Bucket struct {
	Suite    *metrics.Suite
	Halstead halstead.Accumulator
}

// NewBucket creates an empty bucket.
func NewBucket() *Bucket {
	return &Bucket{Suite: metrics.NewSuite()}
}

// BucketFromRecord seeds a bucket from one measurement record's metrics object.
func BucketFromRecord(record gjson.Result) *Bucket {
	bucket := &Bucket{Suite: metrics.SuiteFromRecord(record)}

	if acc, ok := metrics.HalsteadCounts(record); ok {
		bucket.Halstead = acc
	}

	return bucket
}

// Merge folds other into b.
func (b *Bucket) Merge(other *Bucket) {
	if other == nil {
		return
	}

	b.Suite.Merge(other.Suite)
	b.Halstead.Merge(other.Halstead)
}

// Mapping is a fixed set of buckets.
type Mapping struct {
	buckets map[string]*Bucket
	keys    []string
	state   State
}

// New creates a mapping with one empty bucket per key. Duplicate keys panic.
func New(keys ...string) *Mapping {
	m := &Mapping{
		buckets: make(map[string]*Bucket, len(keys)),
		keys:    slices.Clone(keys),
	}

	for _, key := range keys {
		if _, dup := m.buckets[key]; dup {
			panic(fmt.Sprintf("mapping: duplicate bucket key %q", key))
		}

		m.buckets[key] = NewBucket()
	}

	return m
}

// PerFeature creates a mapping with one bucket per feature.
func PerFeature() *Mapping {
	return New(features.Names()...)
}

// PresencePairs creates a mapping with a presence and an absence bucket per feature.
func PresencePairs() *Mapping {
	keys := make([]string, 0, 2*features.Count())

	for _, f := range features.All() {
		keys = append(keys, f.Name(), f.AbsenceName())
	}

	return New(keys...)
}

// Keys returns the bucket keys in construction order.
func (m *Mapping) Keys() []string {
	return slices.Clone(m.keys)
}

// State returns the lifecycle stage.
func (m *Mapping) State() State {
	return m.state
}

// Bucket returns the bucket for key.
func (m *Mapping) Bucket(key string) (*Bucket, bool) {
	b, ok := m.buckets[key]

	return b, ok
}

// MergeBucket folds a single bucket into the bucket stored under key.
func (m *Mapping) MergeBucket(key string, bucket *Bucket) error {
	if m.state == Finalized {
		return ErrFinalized
	}

	target, ok := m.buckets[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBucket, key)
	}

	target.Merge(bucket)
	m.state = Accumulating

	return nil
}

// Merge folds every bucket of other into m. Both mappings must share the
// identical key set; other is left unchanged.
func (m *Mapping) Merge(other *Mapping) error {
	if m.state == Finalized {
		return ErrFinalized
	}

	if !sameKeys(m.buckets, other.buckets) {
		return fmt.Errorf("%w: %v vs %v", ErrKeyMismatch, m.sortedKeys(), other.sortedKeys())
	}

	for key, bucket := range other.buckets {
		m.buckets[key].Merge(bucket)
	}

	m.state = Accumulating

	return nil
}

// Finalize makes the mapping read-only. Only export is defined afterwards.
func (m *Mapping) Finalize() {
	m.state = Finalized
}

// Snapshot is the exported projection of a mapping: bucket key to suite snapshot.
type Snapshot map[string]metrics.Snapshot

// Snapshot exports every bucket's suite.
func (m *Mapping) Snapshot() Snapshot {
	snap := make(Snapshot, len(m.buckets))

	for key, bucket := range m.buckets {
		snap[key] = bucket.Suite.Snapshot()
	}

	return snap
}

// HalsteadSnapshot exports every bucket's averaged Halstead suite.
func (m *Mapping) HalsteadSnapshot() map[string]halstead.Snapshot {
	snap := make(map[string]halstead.Snapshot, len(m.buckets))

	for key, bucket := range m.buckets {
		snap[key] = bucket.Halstead.Average().Snapshot()
	}

	return snap
}

// FromSnapshot rebuilds a finalized mapping from its exported form.
// Halstead accumulators are not part of the snapshot and start empty.
func FromSnapshot(snap Snapshot) (*Mapping, error) {
	keys := slices.Sorted(maps.Keys(snap))
	m := New(keys...)

	for key, suiteSnap := range snap {
		suite, err := metrics.SuiteFromSnapshot(suiteSnap)
		if err != nil {
			return nil, fmt.Errorf("bucket %s: %w", key, err)
		}

		m.buckets[key].Suite = suite
	}

	m.Finalize()

	return m, nil
}

func (m *Mapping) sortedKeys() []string {
	return slices.Sorted(maps.Keys(m.buckets))
}

func sameKeys(a, b map[string]*Bucket) bool {
	if len(a) != len(b) {
		return false
	}

	for key := range a {
		if _, ok := b[key]; !ok {
			return false
		}
	}

	return true
}

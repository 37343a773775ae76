package statistics

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/Sumatoshi-tech/featstat/pkg/alg/stats"
	"github.com/Sumatoshi-tech/featstat/pkg/features"
	"github.com/Sumatoshi-tech/featstat/pkg/mapping"
	"github.com/Sumatoshi-tech/featstat/pkg/metrics"
	"github.com/Sumatoshi-tech/featstat/pkg/values"
)

// Comparison errors.
var (
	// ErrUnknownPair indicates a feature or metric outside the result grid.
	ErrUnknownPair = errors.New("unknown feature or metric")
	// ErrMissingBucket indicates the compared mapping lacks a presence or absence bucket.
	ErrMissingBucket = errors.New("missing presence bucket")
)

// Comparer runs the rank tests over a presence-pair mapping.
type Comparer struct {
	rng            *rand.Rand
	sameSampleSize bool
}

// Option configures a Comparer.
type Option func(*Comparer)

// WithSameSampleSize adds the equal-size test. Both samples are subsampled
// without replacement to the smaller size using a PCG source seeded with
// seed, so runs with the same seed are reproducible.
func WithSameSampleSize(seed uint64) Option {
	return func(c *Comparer) {
		c.sameSampleSize = true
		c.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// NewComparer creates a comparer.
func NewComparer(opts ...Option) *Comparer {
	c := &Comparer{}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Compare tests, for every feature and metric, whether the metric's values
// differ between the feature's presence and absence buckets. Pairs where
// either sample has no defined value are left without an outcome.
func (c *Comparer) Compare(spaces *mapping.Mapping) (*Results, error) {
	results := NewResults(features.Names(), metrics.Names())

	for _, f := range features.All() {
		present, err := bucket(spaces, f.Name())
		if err != nil {
			return nil, err
		}

		absent, err := bucket(spaces, f.AbsenceName())
		if err != nil {
			return nil, err
		}

		for _, m := range metrics.All() {
			x := present.Suite.Series(m).Filtered()
			y := absent.Suite.Series(m).Filtered()

			if len(x) == 0 || len(y) == 0 {
				continue
			}

			err = c.comparePair(results, f.Name(), m.Name(), x, y)
			if err != nil {
				return nil, err
			}
		}
	}

	return results, nil
}

func (c *Comparer) comparePair(results *Results, feature, metric string, x, y []float64) error {
	err := setTest(results, feature, metric, TestMannWhitneyU, x, y)
	if err != nil {
		return err
	}

	if !c.sameSampleSize {
		return nil
	}

	size := min(len(x), len(y))

	return setTest(results, feature, metric, TestMannWhitneyUSameSampleSize,
		c.sample(x, size), c.sample(y, size))
}

// sample draws size entries from pool without replacement.
func (c *Comparer) sample(pool []float64, size int) []float64 {
	if size >= len(pool) {
		return pool
	}

	drawn := make([]float64, len(pool))
	copy(drawn, pool)

	c.rng.Shuffle(len(drawn), func(i, j int) { drawn[i], drawn[j] = drawn[j], drawn[i] })

	return drawn[:size]
}

func setTest(results *Results, feature, metric, test string, x, y []float64) error {
	outcome, err := MannWhitneyU(x, y)
	if err != nil {
		return fmt.Errorf("%s/%s: %w", feature, metric, err)
	}

	return results.Set(feature, metric, test, Cell{
		Statistic:     outcome.U1,
		PValue:        outcome.PValue,
		Proportion:    outcome.Proportion,
		NPresent:      len(x),
		NAbsent:       len(y),
		MedianPresent: median(x),
		MedianAbsent:  median(y),
	})
}

func median(sample []float64) values.Value {
	m, ok := stats.Median(sample)
	if !ok {
		return values.Undefined()
	}

	return values.Of(m)
}

func bucket(spaces *mapping.Mapping, key string) (*mapping.Bucket, error) {
	b, ok := spaces.Bucket(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingBucket, key)
	}

	return b, nil
}

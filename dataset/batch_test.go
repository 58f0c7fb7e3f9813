package dataset

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/zeroshoteval/pkg/errors"
)

func largeToy() ToyBenchmark {
	toy := DefaultToyBenchmark()
	toy.SeenClasses = []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	toy.UnseenClasses = []int{10, 11}
	toy.TrainvalPerClass = 10
	return toy
}

func TestNextBatch(t *testing.T) {
	l := loadToy(t, DefaultToyBenchmark(), AuxAttributes)
	train, err := l.Split(TrainSeen)
	require.NoError(t, err)

	b, err := l.NextBatch(3)
	require.NoError(t, err)
	require.Equal(t, 3, b.Len())

	sorted := slices.Clone(b.Indices)
	slices.Sort(sorted)
	assert.Len(t, slices.Compact(sorted), 3, "indices must be distinct")

	for i, idx := range b.Indices {
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, l.NTrain())
		assert.Equal(t, train.Labels[idx], b.Labels[i])
		assert.Equal(t, train.Features.RawRowView(idx), b.Features.RawRowView(i))
		assert.Equal(t, l.AuxData().RawRowView(b.Labels[i]), b.Auxiliary.RawRowView(i))
	}
}

func TestNextBatchClampsToTrainSize(t *testing.T) {
	l := loadToy(t, DefaultToyBenchmark(), AuxAttributes)

	b, err := l.NextBatch(100)
	require.NoError(t, err)
	assert.Equal(t, l.NTrain(), b.Len())

	sorted := slices.Clone(b.Indices)
	slices.Sort(sorted)
	assert.Equal(t, []int{0, 1, 2, 3}, sorted)
}

func TestNextBatchRejectsNonPositive(t *testing.T) {
	l := loadToy(t, DefaultToyBenchmark(), AuxAttributes)

	for _, n := range []int{0, -5} {
		b, err := l.NextBatch(n)
		assert.Nil(t, b)
		var valErr *errors.ValueError
		assert.True(t, errors.As(err, &valErr), "n=%d", n)
	}
}

func TestNextBatchDraws(t *testing.T) {
	l := loadToy(t, largeToy(), AuxAttributes)
	require.Equal(t, 100, l.NTrain())

	first, err := l.NextBatch(10)
	require.NoError(t, err)
	second, err := l.NextBatch(10)
	require.NoError(t, err)
	assert.NotEqual(t, first.Indices, second.Indices)
}

func TestNextBatchSeeded(t *testing.T) {
	root := writeToy(t, largeToy())
	cfg := Config{Name: "cub", AuxiliarySource: AuxAttributes, DataRoot: root}

	a, err := New(cfg, WithLogger(quietLogger()), WithSeed(99))
	require.NoError(t, err)
	b, err := New(cfg, WithLogger(quietLogger()), WithSeed(99))
	require.NoError(t, err)
	assert.Equal(t, uint64(99), a.Seed())

	for range 3 {
		ba, err := a.NextBatch(16)
		require.NoError(t, err)
		bb, err := b.NextBatch(16)
		require.NoError(t, err)
		assert.Equal(t, ba.Indices, bb.Indices)
	}
}

package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordflowlab/vectorhub/pkg/index"
	"github.com/wordflowlab/vectorhub/pkg/types"
)

func newTestIndex(t *testing.T, metric types.Metric) *Index {
	t.Helper()
	x, err := New(Config{Name: "test", Dimensions: 3, Metric: metric})
	require.NoError(t, err)
	return x
}

func TestIndex_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	x := newTestIndex(t, types.MetricCosine)

	ids, err := x.Upsert(ctx, []types.Vector{
		{ID: "a", Namespace: "ns1", Values: []float32{1, 0, 0}, Metadata: map[string]interface{}{"k": "v"}},
		{ID: "b", Namespace: "ns1", Values: []float32{0, 1, 0}},
		{ID: "a", Namespace: "ns2", Values: []float32{0, 0, 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "a"}, ids)

	got, err := x.GetByIDs(ctx, "ns1", []string{"b", "missing", "a"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
	assert.Equal(t, "v", got[1].Metadata["k"])

	other, err := x.GetByIDs(ctx, "ns2", []string{"a"})
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, []float32{0, 0, 1}, other[0].Values)

	desc, err := x.Describe(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), desc.VectorsCount)
	assert.Equal(t, 3, desc.Dimensions)
	assert.Equal(t, types.MetricCosine, desc.Metric)
}

func TestIndex_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	x := newTestIndex(t, types.MetricCosine)

	_, err := x.Upsert(ctx, []types.Vector{
		{ID: "ok", Namespace: "ns", Values: []float32{1, 0, 0}},
		{ID: "bad", Namespace: "ns", Values: []float32{1, 0}},
	})
	var dimErr *index.DimensionMismatchError
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, "bad", dimErr.VectorID)
	assert.Equal(t, 2, dimErr.Got)
	assert.Equal(t, 3, dimErr.Want)
	assert.Equal(t, 0, x.Count("ns"), "rejected batch must not be partially written")

	_, err = x.Query(ctx, "ns", []float32{1}, index.QueryOptions{})
	assert.ErrorAs(t, err, &dimErr)
}

func TestIndex_Query(t *testing.T) {
	ctx := context.Background()
	x := newTestIndex(t, types.MetricCosine)

	_, err := x.Upsert(ctx, []types.Vector{
		{ID: "x", Namespace: "ns", Values: []float32{1, 0, 0}},
		{ID: "xy", Namespace: "ns", Values: []float32{1, 1, 0}},
		{ID: "y", Namespace: "ns", Values: []float32{0, 1, 0}},
		{ID: "other", Namespace: "elsewhere", Values: []float32{1, 0, 0}},
	})
	require.NoError(t, err)

	matches, err := x.Query(ctx, "ns", []float32{1, 0, 0}, index.QueryOptions{TopK: 2, ReturnValues: true})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "x", matches[0].ID)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
	assert.Equal(t, "xy", matches[1].ID)
	assert.NotEmpty(t, matches[0].Values)
	assert.Nil(t, matches[0].Metadata)

	empty, err := x.Query(ctx, "nobody", []float32{1, 0, 0}, index.QueryOptions{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestIndex_QueryMetrics(t *testing.T) {
	ctx := context.Background()
	for _, metric := range []types.Metric{types.MetricEuclidean, types.MetricDotProduct} {
		t.Run(string(metric), func(t *testing.T) {
			x := newTestIndex(t, metric)
			_, err := x.Upsert(ctx, []types.Vector{
				{ID: "near", Namespace: "ns", Values: []float32{1, 1, 1}},
				{ID: "far", Namespace: "ns", Values: []float32{-5, -5, -5}},
			})
			require.NoError(t, err)

			matches, err := x.Query(ctx, "ns", []float32{1, 1, 1}, index.QueryOptions{TopK: 10})
			require.NoError(t, err)
			require.Len(t, matches, 2)
			assert.Equal(t, "near", matches[0].ID)
			assert.Greater(t, matches[0].Score, matches[1].Score)
		})
	}
}

func TestIndex_DeleteByIDs(t *testing.T) {
	ctx := context.Background()
	x := newTestIndex(t, types.MetricCosine)

	_, err := x.Upsert(ctx, []types.Vector{
		{ID: "a", Namespace: "ns", Values: []float32{1, 0, 0}},
		{ID: "b", Namespace: "ns", Values: []float32{0, 1, 0}},
	})
	require.NoError(t, err)

	n, err := x.DeleteByIDs(ctx, "ns", []string{"a", "missing"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, x.Count("ns"))

	n, err = x.DeleteByIDs(ctx, "other", []string{"b"})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, x.Count("ns"))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Dimensions: 0})
	assert.Error(t, err)

	_, err = New(Config{Dimensions: 3, Metric: "manhattan"})
	assert.Error(t, err)
}

package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestMemory(t *testing.T) *FinancialSituationMemory {
	t.Helper()
	return NewFinancialSituationMemory("test_memory", NewHashEmbedder(), zap.NewNop())
}

func TestGetMemoriesRanksBySimilarity(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)

	require.NoError(t, m.AddSituations(ctx, [][2]string{
		{"high inflation rising interest rates tech selloff", "reduce exposure to growth stocks"},
		{"strong earnings beat with raised guidance", "hold winners and add on pullbacks"},
		{"oil supply shock energy rally", "rotate into energy names"},
	}))
	require.Equal(t, 3, m.Len())

	matches, err := m.GetMemories(ctx, "inflation and interest rates pressure tech stocks", 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "reduce exposure to growth stocks", matches[0].Recommendation)
	assert.GreaterOrEqual(t, matches[0].SimilarityScore, matches[1].SimilarityScore)
}

func TestGetMemoriesEmptyStore(t *testing.T) {
	m := newTestMemory(t)
	matches, err := m.GetMemories(context.Background(), "anything", 2)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestGetMemoriesTopNBounds(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)
	require.NoError(t, m.AddSituations(ctx, [][2]string{
		{"situation one", "lesson one"},
	}))

	matches, err := m.GetMemories(ctx, "situation one", 5)
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	matches, err = m.GetMemories(ctx, "situation one", 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFormatMemories(t *testing.T) {
	assert.Equal(t, "No past memories found.", FormatMemories(nil))

	out := FormatMemories([]MemoryMatch{
		{Recommendation: "first lesson"},
		{Recommendation: "second lesson"},
	})
	assert.Contains(t, out, "1. first lesson")
	assert.Contains(t, out, "2. second lesson")
}

func TestHashEmbedderDeterministic(t *testing.T) {
	e := NewHashEmbedder()
	a, err := e.Embed(context.Background(), "apple earnings momentum")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "apple earnings momentum")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.InDelta(t, 1.0, cosineSimilarity(a, b), 1e-9)
}

package retrieval

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vectorItem(id string, score float64) Item {
	return Item{Id: id, Source: SourceVector, Content: "chunk " + id, Score: score, HasScore: true}
}

func externalItem(id string) Item {
	return Item{Id: id, Source: SourceExternal, Content: "case " + id}
}

func TestClampTopK(t *testing.T) {
	assert.Equal(t, MinTopK, ClampTopK(0))
	assert.Equal(t, MinTopK, ClampTopK(-5))
	assert.Equal(t, MaxTopK, ClampTopK(1000))
	assert.Equal(t, 7, ClampTopK(7))
	assert.Equal(t, MinTopK, ClampTopK(MinTopK))
	assert.Equal(t, MaxTopK, ClampTopK(MaxTopK))
}

func TestMergeRanksAreContiguous(t *testing.T) {
	items := []Item{
		vectorItem("a", 0.9),
		vectorItem("b", 0.7),
		externalItem("c"),
		externalItem("d"),
		vectorItem("e", 0.3),
	}

	results := Merge(items, 10)
	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, i+1, r.Rank)
	}
}

func TestMergeScoresAreMonotonic(t *testing.T) {
	items := []Item{
		vectorItem("a", 0.12),
		vectorItem("b", 0.98),
		externalItem("x"),
		externalItem("y"),
		externalItem("z"),
		vectorItem("c", 0.55),
	}

	results := Merge(items, 10)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].NormalizedScore, results[i].NormalizedScore,
			"scores must not increase with rank")
	}
}

func TestMergeDedupSameIdSameSource(t *testing.T) {
	items := []Item{
		vectorItem("dup", 0.9),
		vectorItem("dup", 0.4),
		vectorItem("other", 0.5),
	}

	results := Merge(items, 10)
	require.Len(t, results, 2)
	assert.Equal(t, "dup", results[0].Id)
	assert.Equal(t, 0.9, results[0].NormalizedScore, "first occurrence wins")
}

func TestMergeSameIdDifferentSourcesBothSurvive(t *testing.T) {
	items := []Item{
		vectorItem("shared", 0.8),
		externalItem("shared"),
	}

	results := Merge(items, 10)
	require.Len(t, results, 2)
}

func TestMergeSyntheticScoresFollowArrivalOrder(t *testing.T) {
	items := []Item{
		externalItem("first"),
		externalItem("second"),
		externalItem("third"),
	}

	results := Merge(items, 10)
	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].Id)
	assert.Equal(t, 1.0, results[0].NormalizedScore)
	assert.Equal(t, "second", results[1].Id)
	assert.Equal(t, 0.5, results[1].NormalizedScore)
	assert.Equal(t, "third", results[2].Id)
	assert.InDelta(t, 1.0/3.0, results[2].NormalizedScore, 1e-9)
}

func TestMergeTieBreakPrefersVector(t *testing.T) {
	// The first external item's synthetic score is 1.0, tying with a
	// perfectly scored vector chunk.
	items := []Item{
		externalItem("ext"),
		vectorItem("vec", 1.0),
	}

	results := Merge(items, 10)
	require.Len(t, results, 2)
	assert.Equal(t, SourceVector, results[0].Source)
	assert.Equal(t, SourceExternal, results[1].Source)
}

func TestMergeTruncatesToTopK(t *testing.T) {
	items := make([]Item, 0, 30)
	for i := 0; i < 30; i++ {
		items = append(items, vectorItem(string(rune('a'+i)), float64(30-i)/30.0))
	}

	results := Merge(items, 5)
	require.Len(t, results, 5)
	assert.Equal(t, 1, results[0].Rank)
	assert.Equal(t, 5, results[4].Rank)
}

func TestMergeEmptyInput(t *testing.T) {
	results := Merge(nil, 10)
	assert.Empty(t, results)

	results = Merge([]Item{}, 10)
	assert.Empty(t, results)
}

func TestMergeOnlyExternalSource(t *testing.T) {
	items := []Item{
		externalItem("e1"),
		externalItem("e2"),
	}

	results := Merge(items, 10)
	require.Len(t, results, 2)
	assert.Equal(t, "e1", results[0].Id)
	assert.Equal(t, "e2", results[1].Id)
}

func TestRerankDedupsByIdAndSourceKeepingBestScore(t *testing.T) {
	ranked := func(id string, source SourceType, score float64, rank int) RankedResult {
		return RankedResult{
			Item:            Item{Id: id, Source: source, Content: id},
			NormalizedScore: score,
			Rank:            rank,
		}
	}

	// Two independently ranked batches with an overlapping vector hit.
	accumulated := []RankedResult{
		ranked("a", SourceVector, 0.9, 1),
		ranked("b", SourceVector, 0.5, 2),
		ranked("b", SourceVector, 0.8, 1),
		ranked("c", SourceExternal, 0.4, 2),
	}

	results := Rerank(accumulated)
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].Id)
	assert.Equal(t, "b", results[1].Id)
	assert.Equal(t, 0.8, results[1].NormalizedScore, "best score wins")
	assert.Equal(t, "c", results[2].Id)
	for i, r := range results {
		assert.Equal(t, i+1, r.Rank)
	}
}

func TestRerankSameIdDifferentSourcesBothSurvive(t *testing.T) {
	accumulated := []RankedResult{
		{Item: Item{Id: "shared", Source: SourceVector}, NormalizedScore: 0.7, Rank: 1},
		{Item: Item{Id: "shared", Source: SourceExternal}, NormalizedScore: 0.7, Rank: 1},
	}

	results := Rerank(accumulated)
	require.Len(t, results, 2)
	assert.Equal(t, SourceVector, results[0].Source, "ties prefer vector")
}

func TestRerankEmptyInput(t *testing.T) {
	assert.Empty(t, Rerank(nil))
}

func TestMergeInsensitiveToSourceInterleaving(t *testing.T) {
	// Shuffling the interleaving of sources must not change the ranked
	// outcome, because synthetic scores come from per-source positions.
	base := []Item{
		vectorItem("v1", 0.9),
		vectorItem("v2", 0.6),
		vectorItem("v3", 0.2),
		externalItem("e1"),
		externalItem("e2"),
	}

	expected := Merge(base, 10)

	vectors := base[:3]
	externals := base[3:]

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 20; trial++ {
		// Random interleaving that preserves per-source order.
		interleaved := make([]Item, 0, len(base))
		vi, ei := 0, 0
		for vi < len(vectors) || ei < len(externals) {
			takeVector := ei >= len(externals) || (vi < len(vectors) && rng.Intn(2) == 0)
			if takeVector {
				interleaved = append(interleaved, vectors[vi])
				vi++
			} else {
				interleaved = append(interleaved, externals[ei])
				ei++
			}
		}

		got := Merge(interleaved, 10)
		require.Len(t, got, len(expected))
		for i := range expected {
			assert.Equal(t, expected[i].Id, got[i].Id)
			assert.Equal(t, expected[i].NormalizedScore, got[i].NormalizedScore)
			assert.Equal(t, expected[i].Rank, got[i].Rank)
		}
	}
}

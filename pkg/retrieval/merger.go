package retrieval

import "sort"

const (
	MinTopK     = 1
	MaxTopK     = 50
	DefaultTopK = 10
)

// ClampTopK forces a requested result budget into [MinTopK, MaxTopK].
// Out-of-range values are clamped, not rejected, so the endpoint stays
// permissive for clients.
func ClampTopK(k int) int {
	if k < MinTopK {
		return MinTopK
	}
	if k > MaxTopK {
		return MaxTopK
	}
	return k
}

// sourcePriority orders tie-broken results: vector chunks before
// external case law, reflecting the product defaults.
func sourcePriority(s SourceType) int {
	switch s {
	case SourceVector:
		return 0
	case SourceExternal:
		return 1
	default:
		return 2
	}
}

// Merge combines retrieved items from any number of sources into one
// ranked, deduplicated, capped result set. Items must be passed in
// arrival order (per-source order preserved).
//
// Duplicates share both id and source type; a vector chunk and an
// external document describing the same real-world case are kept as
// distinct results because no reliable cross-source identity key
// exists. Unscored items receive a synthetic score of 1/(1+i) from
// their position i within their own source, so unscored sources
// neither dominate nor vanish.
//
// An empty result is valid and distinct from a source failure, which
// callers handle before merging.
func Merge(items []Item, topK int) []RankedResult {
	topK = ClampTopK(topK)

	type candidate struct {
		Item
		normalized float64
		arrival    int
	}

	seen := make(map[SourceType]map[string]bool)
	perSourceIndex := make(map[SourceType]int)
	candidates := make([]candidate, 0, len(items))

	for _, item := range items {
		if seen[item.Source] == nil {
			seen[item.Source] = make(map[string]bool)
		}
		idx := perSourceIndex[item.Source]
		perSourceIndex[item.Source] = idx + 1

		if seen[item.Source][item.Id] {
			continue
		}
		seen[item.Source][item.Id] = true

		score := item.Score
		if !item.HasScore {
			score = 1.0 / float64(1+idx)
		}

		candidates = append(candidates, candidate{
			Item:       item,
			normalized: score,
			arrival:    len(candidates),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].normalized != candidates[j].normalized {
			return candidates[i].normalized > candidates[j].normalized
		}
		pi, pj := sourcePriority(candidates[i].Source), sourcePriority(candidates[j].Source)
		if pi != pj {
			return pi < pj
		}
		return candidates[i].arrival < candidates[j].arrival
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	results := make([]RankedResult, len(candidates))
	for i, c := range candidates {
		results[i] = RankedResult{
			Item:            c.Item,
			NormalizedScore: c.normalized,
			Rank:            i + 1,
		}
	}
	return results
}

// Rerank folds an accumulated result set, such as the union of several
// independently merged tool-call results, back into one deduplicated
// ranking. Duplicates share id and source; the occurrence with the best
// normalized score survives. Ranks are reassigned contiguously.
func Rerank(results []RankedResult) []RankedResult {
	index := make(map[SourceType]map[string]int)
	out := make([]RankedResult, 0, len(results))

	for _, r := range results {
		if index[r.Source] == nil {
			index[r.Source] = make(map[string]int)
		}
		if at, ok := index[r.Source][r.Id]; ok {
			if r.NormalizedScore > out[at].NormalizedScore {
				out[at] = r
			}
			continue
		}
		index[r.Source][r.Id] = len(out)
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].NormalizedScore != out[j].NormalizedScore {
			return out[i].NormalizedScore > out[j].NormalizedScore
		}
		return sourcePriority(out[i].Source) < sourcePriority(out[j].Source)
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

package hybrid

import "sort"

// rrfK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const rrfK = 60

// fuseRRF merges per-source rankings via Reciprocal Rank Fusion.
// score(d) = sum of 1/(k + rank_i(d)) for each ranking where d appears.
// Raw scores are ignored; only ranks matter, so no normalization is needed.
func fuseRRF(sources [][]DocScore, topK int) []RankedDoc {
	merged := make(map[string]float64)

	for _, source := range sources {
		for rank, ds := range source {
			merged[ds.DocID] += 1.0 / float64(rrfK+rank+1)
		}
	}

	ranked := make([]RankedDoc, 0, len(merged))
	for id, score := range merged {
		ranked = append(ranked, RankedDoc{DocID: id, Score: score})
	}

	sortRanked(ranked)

	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}

// sortRanked orders by score descending, document ID ascending on ties.
func sortRanked(ranked []RankedDoc) {
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].DocID < ranked[j].DocID
	})
}

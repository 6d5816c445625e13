package rank

import "github.com/tidwall/btree"

// TopK returns the k highest scores, best first, with ties broken by
// ascending vertex. It keeps a bounded ordered set, so it costs O(n log k).
func TopK(scores map[VertexID]float64, k int) RankMap {
	if k <= 0 || len(scores) == 0 {
		return RankMap{}
	}

	if k > len(scores) {
		k = len(scores)
	}

	tr := btree.NewBTreeGOptions(ranksBefore, btree.Options{NoLocks: true})

	for v, s := range scores {
		e := Scored{Vertex: v, Score: s}

		if tr.Len() == k {
			worst, _ := tr.Max()
			if !ranksBefore(e, worst) {
				continue
			}

			tr.PopMax()
		}

		tr.Set(e)
	}

	out := make(RankMap, 0, tr.Len())
	tr.Scan(func(e Scored) bool {
		out = append(out, e)

		return true
	})

	return out
}

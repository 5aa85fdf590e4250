package recognition

import (
	"math"
	"slices"

	"github.com/RyanBlaney/sonido-kord/algorithms/tonal"
	"github.com/RyanBlaney/sonido-kord/config"
	"github.com/RyanBlaney/sonido-kord/theory"
)

// Source tells which scorers contributed to a decision
type Source string

const (
	SourceHeuristic Source = "heuristic"
	SourceCombined  Source = "combined"
)

// Scored is a candidate with its blended confidence
type Scored struct {
	tonal.Candidate
	Learned    float64 `json:"learned,omitempty"` // Model probability, 0 when heuristic only
	Confidence float64 `json:"confidence"`
}

// Ranked is the presentation form of a scored candidate
type Ranked struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Decision is the ranked outcome for one window. It has no candidates when
// nothing was detected.
type Decision struct {
	Candidates []Scored `json:"candidates"`
	Source     Source   `json:"source"`
}

// Best returns the top candidate
func (d *Decision) Best() (Scored, bool) {
	if d == nil || len(d.Candidates) == 0 {
		return Scored{}, false
	}
	return d.Candidates[0], true
}

// RunnersUp returns every candidate after the best
func (d *Decision) RunnersUp() []Scored {
	if d == nil || len(d.Candidates) < 2 {
		return nil
	}
	return d.Candidates[1:]
}

// Ranking lists candidate names with their confidence, best first
func (d *Decision) Ranking() []Ranked {
	if d == nil {
		return nil
	}
	ranking := make([]Ranked, len(d.Candidates))
	for i, c := range d.Candidates {
		ranking[i] = Ranked{Name: c.Name(), Confidence: c.Confidence}
	}
	return ranking
}

// Combiner blends heuristic similarity with model probabilities
type Combiner struct {
	catalog         *theory.Catalog
	heuristicWeight float64
	learnedWeight   float64
	topK            int
}

// NewCombiner creates a combiner for a catalog
func NewCombiner(catalog *theory.Catalog, cfg config.CombinerConfig) *Combiner {
	return &Combiner{
		catalog:         catalog,
		heuristicWeight: cfg.HeuristicWeight,
		learnedWeight:   cfg.LearnedWeight,
		topK:            cfg.TopK,
	}
}

// TopK returns how many candidates a decision keeps
func (c *Combiner) TopK() int {
	return c.topK
}

// Combine ranks the heuristic candidates, which must already be in ranking
// order, together with per-template probabilities indexed like the catalog.
// Without probabilities the decision is the heuristic top-K with confidence
// equal to the score. Otherwise the heuristic top-K and the learned top-K are
// merged and each is given the weighted mean of its clamped cosine and its
// probability.
func (c *Combiner) Combine(heuristic []tonal.Candidate, learned []float64) *Decision {
	if learned == nil || len(learned) != c.catalog.Len() || len(heuristic) == 0 {
		top := tonal.Top(heuristic, c.topK)
		scored := make([]Scored, len(top))
		for i, cand := range top {
			scored[i] = Scored{Candidate: cand, Confidence: cand.Score}
		}
		return &Decision{Candidates: scored, Source: SourceHeuristic}
	}

	byIndex := make(map[int]tonal.Candidate, len(heuristic))
	for _, cand := range heuristic {
		byIndex[cand.Index] = cand
	}

	union := make(map[int]struct{}, 2*c.topK)
	for _, cand := range tonal.Top(heuristic, c.topK) {
		union[cand.Index] = struct{}{}
	}
	for _, idx := range topIndices(learned, c.topK) {
		union[idx] = struct{}{}
	}

	total := c.heuristicWeight + c.learnedWeight
	scored := make([]Scored, 0, len(union))
	for idx := range union {
		cand, ok := byIndex[idx]
		if !ok {
			cand = tonal.Candidate{Template: c.catalog.At(idx), Index: idx}
		}
		h := math.Min(math.Max(cand.Score, 0), 1)
		p := learned[idx]
		scored = append(scored, Scored{
			Candidate:  cand,
			Learned:    p,
			Confidence: (c.heuristicWeight*h + c.learnedWeight*p) / total,
		})
	}

	slices.SortFunc(scored, func(a, b Scored) int {
		switch {
		case a.Confidence > b.Confidence:
			return -1
		case a.Confidence < b.Confidence:
			return 1
		}
		return tonal.CompareCandidates(a.Candidate, b.Candidate)
	})

	if len(scored) > c.topK {
		scored = scored[:c.topK]
	}
	return &Decision{Candidates: scored, Source: SourceCombined}
}

// topIndices returns the indices of the k largest values, ties to the lower index
func topIndices(values []float64, k int) []int {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		switch {
		case values[a] > values[b]:
			return -1
		case values[a] < values[b]:
			return 1
		}
		return 0
	})
	if k < len(idx) {
		idx = idx[:k]
	}
	return idx
}

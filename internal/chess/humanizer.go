package chess

import "math/rand"

// pickUniform draws one candidate with equal probability.
func pickUniform(candidates []Candidate, r *rand.Rand) Candidate {
	if len(candidates) == 1 || r == nil {
		return candidates[0]
	}
	return candidates[r.Intn(len(candidates))]
}

// Contains reports whether mv is one of moves (same from/to).
func Contains(moves []Candidate, from, to Square) bool {
	for _, mv := range moves {
		if mv.From == from && mv.To == to {
			return true
		}
	}
	return false
}

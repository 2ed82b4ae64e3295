package app

import (
	"github.com/dkeye/hotspot/internal/core"
	"github.com/dkeye/hotspot/internal/domain"
	"github.com/pion/randutil"
)

// Intner draws a uniform int in [0, n).
type Intner interface {
	Intn(n int) int
}

// Eligible applies every preference filter to reg. Unknown age passes age
// bounds; a non-positive age or bound counts as unset.
func Eligible(reg domain.Registration, p domain.Preferences) bool {
	if len(p.Languages) > 0 && !domain.Intersects(reg.Languages, p.Languages) {
		return false
	}
	if len(p.Interests) > 0 && !domain.Intersects(reg.Interests, p.Interests) {
		return false
	}
	if age, known := positive(reg.Age); known {
		if lo, ok := positive(p.MinAge); ok && age < lo {
			return false
		}
		if hi, ok := positive(p.MaxAge); ok && age > hi {
			return false
		}
	}
	return true
}

func positive(v *int) (int, bool) {
	if v == nil || *v <= 0 {
		return 0, false
	}
	return *v, true
}

// Engine picks a partner uniformly at random among the eligible candidates.
type Engine struct {
	rng Intner
}

func NewEngine(rng Intner) *Engine {
	if rng == nil {
		rng = randutil.NewMathRandomGenerator()
	}
	return &Engine{rng: rng}
}

// Candidates returns the filtered candidate set for requester.
func (e *Engine) Candidates(pool *Pool, requester core.ConnectionID, p domain.Preferences) []Candidate {
	all := pool.Available(requester)
	out := all[:0]
	for _, c := range all {
		// another connection of the same user is never a partner
		if p.UserID != "" && c.UserID == p.UserID {
			continue
		}
		if Eligible(c.Registration, p) {
			out = append(out, c)
		}
	}
	return out
}

// Select reports false when nobody qualifies; the caller answers "waiting".
func (e *Engine) Select(pool *Pool, requester core.ConnectionID, p domain.Preferences) (Candidate, bool) {
	cands := e.Candidates(pool, requester, p)
	if len(cands) == 0 {
		return Candidate{}, false
	}
	return cands[e.rng.Intn(len(cands))], true
}

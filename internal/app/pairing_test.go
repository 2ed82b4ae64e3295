package app

import (
	"testing"

	"github.com/dkeye/hotspot/internal/core"
	"github.com/dkeye/hotspot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedRand struct{ n int }

func (f fixedRand) Intn(n int) int { return f.n % n }

func intp(v int) *int { return &v }

func reg(user string, age *int, langs ...string) domain.Registration {
	return domain.Registration{UserID: domain.UserID(user), Age: age, Languages: domain.NewSet(langs)}
}

func TestEligible(t *testing.T) {
	tests := []struct {
		name  string
		reg   domain.Registration
		prefs domain.Preferences
		want  bool
	}{
		{"no filters", reg("a", nil), domain.Preferences{}, true},
		{"language match", reg("a", nil, "fr", "en"), domain.Preferences{Languages: []string{"fr"}}, true},
		{"language miss", reg("a", nil, "en"), domain.Preferences{Languages: []string{"fr"}}, false},
		{"interest miss", domain.Registration{Interests: domain.NewSet([]string{"chess"})}, domain.Preferences{Interests: []string{"go"}}, false},
		{"interest match", domain.Registration{Interests: domain.NewSet([]string{"chess", "go"})}, domain.Preferences{Interests: []string{"go"}}, true},
		{"below min age", reg("a", intp(25)), domain.Preferences{MinAge: intp(30)}, false},
		{"above max age", reg("a", intp(41)), domain.Preferences{MaxAge: intp(40)}, false},
		{"inside bounds", reg("a", intp(30)), domain.Preferences{MinAge: intp(30), MaxAge: intp(30)}, true},
		{"unknown age passes bounds", reg("a", nil), domain.Preferences{MinAge: intp(30), MaxAge: intp(40)}, true},
		{"zero max age is unset", reg("a", intp(25)), domain.Preferences{MaxAge: intp(0)}, true},
		{"zero min age is unset", reg("a", intp(25)), domain.Preferences{MinAge: intp(0), MaxAge: intp(30)}, true},
		{"negative bound is unset", reg("a", intp(25)), domain.Preferences{MinAge: intp(-1)}, true},
		{"zero age is unknown", reg("a", intp(0)), domain.Preferences{MinAge: intp(18)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Eligible(tt.reg, tt.prefs))
		})
	}
}

func TestEngine_NeverSelectsRequester(t *testing.T) {
	p := NewPool()
	p.Upsert("me", reg("me", nil))
	e := NewEngine(nil)

	for i := 0; i < 100; i++ {
		_, ok := e.Select(p, "me", domain.Preferences{})
		assert.False(t, ok)
	}
}

func TestEngine_LanguageScenario(t *testing.T) {
	p := NewPool()
	p.Upsert("x", reg("X", nil, "fr"))
	e := NewEngine(nil)

	got, ok := e.Select(p, "y", domain.Preferences{Languages: []string{"fr"}})
	require.True(t, ok)
	assert.Equal(t, core.ConnectionID("x"), got.ID)

	_, ok = e.Select(p, "y", domain.Preferences{Languages: []string{"en"}})
	assert.False(t, ok, "no candidate means waiting")
}

func TestEngine_AgeScenario(t *testing.T) {
	p := NewPool()
	p.Upsert("a", reg("A", intp(25)))
	p.Upsert("b", reg("B", intp(35)))
	e := NewEngine(nil)

	for i := 0; i < 50; i++ {
		got, ok := e.Select(p, "z", domain.Preferences{MinAge: intp(30)})
		require.True(t, ok)
		assert.Equal(t, core.ConnectionID("b"), got.ID)
	}
}

func TestEngine_SkipsBusy(t *testing.T) {
	p := NewPool()
	p.Upsert("a", reg("A", nil))
	p.Upsert("b", reg("B", nil))
	p.SetBusy("a", true)

	got, ok := NewEngine(fixedRand{0}).Select(p, "z", domain.Preferences{})
	require.True(t, ok)
	assert.Equal(t, core.ConnectionID("b"), got.ID)
}

func TestEngine_UsesInjectedRand(t *testing.T) {
	p := NewPool()
	p.Upsert("a", reg("A", nil))
	p.Upsert("b", reg("B", nil))
	p.Upsert("c", reg("C", nil))

	got, ok := NewEngine(fixedRand{2}).Select(p, "z", domain.Preferences{})
	require.True(t, ok)
	assert.Equal(t, core.ConnectionID("c"), got.ID)
}

func TestEngine_SelectionIsUniform(t *testing.T) {
	p := NewPool()
	for _, id := range []core.ConnectionID{"a", "b", "c"} {
		p.Upsert(id, reg(string(id), nil))
	}
	e := NewEngine(nil)

	const draws = 30000
	counts := make(map[core.ConnectionID]int)
	for i := 0; i < draws; i++ {
		got, ok := e.Select(p, "z", domain.Preferences{})
		require.True(t, ok)
		counts[got.ID]++
	}

	expected := float64(draws) / 3
	chi2 := 0.0
	for _, id := range []core.ConnectionID{"a", "b", "c"} {
		d := float64(counts[id]) - expected
		chi2 += d * d / expected
	}
	// df=2; 20 is far beyond the 0.001 critical value.
	assert.Less(t, chi2, 20.0, "counts=%v", counts)
}

func TestEngine_SkipsSameUser(t *testing.T) {
	p := NewPool()
	p.Upsert("tab1", reg("ann", nil))
	p.Upsert("other", reg("bob", nil))

	for i := 0; i < 50; i++ {
		got, ok := NewEngine(nil).Select(p, "tab2", domain.Preferences{UserID: "ann"})
		require.True(t, ok)
		assert.Equal(t, core.ConnectionID("other"), got.ID)
	}

	p.Remove("other")
	_, ok := NewEngine(nil).Select(p, "tab2", domain.Preferences{UserID: "ann"})
	assert.False(t, ok)
}

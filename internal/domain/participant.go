package domain

// Registration is a matchmaking pool entry. Age nil means unknown.
type Registration struct {
	UserID    UserID              `json:"userId"`
	Age       *int                `json:"age,omitempty"`
	Languages map[string]struct{} `json:"-"`
	Interests map[string]struct{} `json:"-"`
}

// Preferences filter candidates. Empty sets and nil bounds disable a filter.
type Preferences struct {
	UserID    UserID
	Languages []string
	Interests []string
	MinAge    *int
	MaxAge    *int
}

func NewSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it == "" {
			continue
		}
		set[it] = struct{}{}
	}
	return set
}

// Intersects reports whether any of want is in set.
func Intersects(set map[string]struct{}, want []string) bool {
	for _, w := range want {
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}

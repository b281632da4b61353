package rule

import (
	"fmt"
	"math/rand"
	"sort"
)

// Registry holds every rule the server knows about.
type Registry struct {
	rules map[ID]Rule
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[ID]Rule)}
}

// DefaultRegistry returns a registry loaded with the built-in rules.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(FiveTurnBlocker{})
	r.MustRegister(JokerSummon{})
	r.MustRegister(SpeedGame{})
	return r
}

// Register adds a rule; duplicate IDs are rejected.
func (r *Registry) Register(rule Rule) error {
	if _, ok := r.rules[rule.ID()]; ok {
		return fmt.Errorf("rule: duplicate id %q", rule.ID())
	}
	r.rules[rule.ID()] = rule
	return nil
}

// MustRegister panics on duplicate IDs. Use at startup only.
func (r *Registry) MustRegister(rule Rule) {
	if err := r.Register(rule); err != nil {
		panic(err)
	}
}

// Get looks a rule up by ID.
func (r *Registry) Get(id ID) (Rule, bool) {
	rule, ok := r.rules[id]
	return rule, ok
}

// IDs returns every registered rule ID in stable order.
func (r *Registry) IDs() []ID {
	ids := make([]ID, 0, len(r.rules))
	for id := range r.rules {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CountForRating maps a group's skill rating to how many rules its
// session plays with. Stronger lobbies get more chaos.
func CountForRating(rating int) int {
	switch {
	case rating < 500:
		return 1
	case rating < 1000:
		return 2
	case rating < 2000:
		return 3
	default:
		return 4
	}
}

// Select picks the session's rule set. Fixed IDs, when given, override
// random selection entirely; unknown fixed IDs are an error. Otherwise
// CountForRating rules are drawn at random without replacement, capped
// at the registry size.
func (r *Registry) Select(rating int, fixed []ID, rng *rand.Rand) ([]Rule, error) {
	if len(fixed) > 0 {
		out := make([]Rule, 0, len(fixed))
		for _, id := range fixed {
			rule, ok := r.Get(id)
			if !ok {
				return nil, fmt.Errorf("rule: unknown fixed rule %q", id)
			}
			out = append(out, rule)
		}
		return out, nil
	}
	ids := r.IDs()
	count := CountForRating(rating)
	if count > len(ids) {
		count = len(ids)
	}
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	out := make([]Rule, 0, count)
	for _, id := range ids[:count] {
		rule, _ := r.Get(id)
		out = append(out, rule)
	}
	return out, nil
}

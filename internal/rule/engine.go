package rule

// Engine runs one session's selected rules at their trigger points.
// Rules whose MinRating exceeds the session's skill rating are
// suppressed.
type Engine struct {
	selected    []Rule
	scratch     *Scratch
	skillRating int
}

// NewEngine binds a selected rule set to fresh per-session scratch.
// The skill rating is the lowest participant rating in the group.
func NewEngine(selected []Rule, scratch *Scratch, skillRating int) *Engine {
	return &Engine{selected: selected, scratch: scratch, skillRating: skillRating}
}

// Fire applies every eligible selected rule for the trigger, in
// selection order.
func (e *Engine) Fire(trigger Trigger, acc Access) {
	for _, r := range e.selected {
		if r.Trigger() != trigger {
			continue
		}
		if e.skillRating < r.MinRating() {
			continue
		}
		r.Apply(acc, e.scratch)
	}
}

// Selected returns the IDs of this session's rules.
func (e *Engine) Selected() []ID {
	ids := make([]ID, len(e.selected))
	for i, r := range e.selected {
		ids[i] = r.ID()
	}
	return ids
}

// Reset clears per-game scratch while keeping the selected rule set.
// Used on rematch so counters and one-shot flags start over.
func (e *Engine) Reset(seed int64) {
	e.scratch = NewScratch(seed)
}

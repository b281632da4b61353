package matching

import (
	"time"

	"github.com/google/uuid"
)

// Ticket is one user's standing request to be matched. Modes lists the
// game headcounts the user will accept.
type Ticket struct {
	ID        string
	UserID    string
	Rating    int
	Modes     []int
	CreatedAt time.Time
}

// NewTicket creates a queue ticket for the user at the given rating.
func NewTicket(userID string, rating int, modes []int, now time.Time) *Ticket {
	ms := make([]int, len(modes))
	copy(ms, modes)
	return &Ticket{
		ID:        uuid.NewString(),
		UserID:    userID,
		Rating:    rating,
		Modes:     ms,
		CreatedAt: now,
	}
}

func (t *Ticket) acceptsMode(headcount int) bool {
	for _, m := range t.Modes {
		if m == headcount {
			return true
		}
	}
	return false
}

// ticketInfo is a queued ticket plus the credit it has accumulated by
// surviving failed evaluation passes.
type ticketInfo struct {
	ticket *Ticket
	credit int
}

func (ti *ticketInfo) waitSeconds(now time.Time) float64 {
	d := now.Sub(ti.ticket.CreatedAt)
	if d < 0 {
		return 0
	}
	return d.Seconds()
}

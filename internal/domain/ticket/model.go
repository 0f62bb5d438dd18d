package ticket

import "time"

// Status is the workflow state of a ticket.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusClosed     Status = "closed"
)

// Priority ranks how urgent a ticket is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Ticket is a unit of tracked work owned by a single user.
type Ticket struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Draft carries the caller-supplied fields of a new ticket. UserID must name
// the authenticated caller.
type Draft struct {
	UserID      string   `json:"userId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority"`
}

// Patch is a shallow update: nil fields are left untouched.
type Patch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	ID          *string    `json:"id,omitempty"`
	UserID      *string    `json:"userId,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

// TouchesIdentity reports whether the patch rewrites id, userId or createdAt.
func (p Patch) TouchesIdentity() bool {
	return p.ID != nil || p.UserID != nil || p.CreatedAt != nil
}

// Apply merges the patch over t. Identity fields are only merged when
// keepIdentity is false.
func (p Patch) Apply(t Ticket, keepIdentity bool) Ticket {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if keepIdentity {
		return t
	}
	if p.ID != nil {
		t.ID = *p.ID
	}
	if p.UserID != nil {
		t.UserID = *p.UserID
	}
	if p.CreatedAt != nil {
		t.CreatedAt = *p.CreatedAt
	}
	return t
}

// Samples returns the read-only demo tickets seeded on first start.
func Samples(now time.Time) []Ticket {
	return []Ticket{
		{ID: "t1", Title: "Fix login button", Description: "The login button is not working on mobile.", Status: StatusOpen, Priority: PriorityHigh, CreatedAt: now},
		{ID: "t2", Title: "Update hero image", Description: "", Status: StatusInProgress, Priority: PriorityMedium, CreatedAt: now},
		{ID: "t3", Title: "Deploy to Vercel", Description: "Final deployment", Status: StatusClosed, Priority: PriorityLow, CreatedAt: now},
	}
}

// Package model contains domain types for the duewatch application.
// These types are independent of any external GitHub library.
package model

// RunMode selects which due-date condition a run notifies for.
type RunMode string

const (
	ModeOverdue        RunMode = "overdue_issues"
	ModeExpiring       RunMode = "expiring_issues"
	ModeMissingDueDate RunMode = "missing_duedate"
)

// AllRunModes contains all valid run modes.
// This is the single source of truth for valid mode values.
var AllRunModes = []RunMode{
	ModeOverdue,
	ModeExpiring,
	ModeMissingDueDate,
}

// Valid reports whether the mode is one of the supported run modes.
func (m RunMode) Valid() bool {
	for _, mode := range AllRunModes {
		if m == mode {
			return true
		}
	}
	return false
}

// Channel selects how notifications are delivered for a run.
type Channel string

const (
	ChannelComment Channel = "comment"
	ChannelEmail   Channel = "email"
)

// Valid reports whether the channel is a supported delivery channel.
func (c Channel) Valid() bool {
	return c == ChannelComment || c == ChannelEmail
}

// OwnerType distinguishes user-owned from organization-owned projects.
// The values match the GraphQL top-level query field names.
type OwnerType string

const (
	OwnerUser         OwnerType = "user"
	OwnerOrganization OwnerType = "organization"
)

// Valid reports whether the owner type is supported.
func (o OwnerType) Valid() bool {
	return o == OwnerUser || o == OwnerOrganization
}

// Assignee is a user assigned to an issue. Email and Login may be blank
// depending on the user's profile visibility.
type Assignee struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Login string `json:"login"`
}

// Issue is a notification subject, fetched fresh each run and discarded
// after it. ID is the GraphQL node id used as the comment subject.
type Issue struct {
	ID        string     `json:"id"`
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	State     string     `json:"state,omitempty"`
	URL       string     `json:"url"`
	Assignees []Assignee `json:"assignees,omitempty"`
}

// Classification is the due-date condition an issue falls under. It is
// derived per run, never stored.
type Classification string

const (
	Overdue        Classification = "overdue"
	ExpiringSoon   Classification = "expiring_soon"
	MissingDueDate Classification = "missing_duedate"
	NotApplicable  Classification = "not_applicable"
)

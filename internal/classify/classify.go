// Package classify decides which due-date condition an issue falls under
// and whether its workflow status qualifies it for notification.
package classify

import (
	"time"

	"github.com/spiffcs/duewatch/internal/fields"
	"github.com/spiffcs/duewatch/internal/model"
)

// ExpiryWindowDays is the number of days past today that still counts as
// expiring soon. Today, tomorrow, and the day after are all inside the window.
const ExpiryWindowDays = 2

// DefaultAllowedStatuses are the workflow statuses eligible for notification
// when the configuration does not override them.
var DefaultAllowedStatuses = []string{"In Progress", "In review"}

// Classifier evaluates one project item's field set against a fixed "today".
type Classifier struct {
	DueDateField    string
	AllowedStatuses []string
}

// Result holds the outcome of classifying one issue. The date flags are
// mutually exclusive; StatusEligible gates all of them.
type Result struct {
	Overdue        bool
	ExpiringSoon   bool
	NoDueDate      bool
	StatusEligible bool

	// DueDate is the parsed calendar date, zero when NoDueDate is set.
	DueDate time.Time
}

// NewClassifier returns a classifier with the default status allow-list
// applied when statuses is empty.
func NewClassifier(dueDateField string, statuses []string) *Classifier {
	if len(statuses) == 0 {
		statuses = DefaultAllowedStatuses
	}
	return &Classifier{
		DueDateField:    dueDateField,
		AllowedStatuses: statuses,
	}
}

// Classify evaluates a field set. today must be a calendar date (see DateOf);
// using one fixed value per run keeps classification deterministic within a
// single invocation.
func (c *Classifier) Classify(fs fields.FieldSet, today time.Time) Result {
	var res Result

	if status, ok := fs.StatusName(); ok {
		for _, allowed := range c.AllowedStatuses {
			if status == allowed {
				res.StatusEligible = true
				break
			}
		}
	}

	due, ok := fs.DueDate(c.DueDateField)
	if !ok {
		res.NoDueDate = true
		return res
	}

	res.DueDate = due
	switch {
	case due.Before(today):
		res.Overdue = true
	case !due.After(today.AddDate(0, 0, ExpiryWindowDays)):
		res.ExpiringSoon = true
	}

	return res
}

// Classification reduces the result to a single condition label.
func (r Result) Classification() model.Classification {
	switch {
	case r.Overdue:
		return model.Overdue
	case r.ExpiringSoon:
		return model.ExpiringSoon
	case r.NoDueDate:
		return model.MissingDueDate
	default:
		return model.NotApplicable
	}
}

// DateOf truncates a timestamp to its calendar date in UTC, the comparison
// domain for all due-date checks.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

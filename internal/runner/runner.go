// Package runner drives one notification batch: fetch, normalize, classify,
// compose, dispatch. A run handles exactly one mode and exits; there is no
// state across runs.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spiffcs/duewatch/internal/classify"
	"github.com/spiffcs/duewatch/internal/fields"
	"github.com/spiffcs/duewatch/internal/ghclient"
	"github.com/spiffcs/duewatch/internal/log"
	"github.com/spiffcs/duewatch/internal/model"
	"github.com/spiffcs/duewatch/internal/notify"
)

// ErrUnsupportedMode is returned for a run mode outside model.AllRunModes.
// It is the only error that aborts a run.
var ErrUnsupportedMode = errors.New("unsupported run mode")

// Config carries everything one notification run needs. It is passed in
// explicitly so components stay testable in isolation.
type Config struct {
	Owner           string
	OwnerType       model.OwnerType
	Repository      string
	ProjectNumber   int
	Enterprise      bool
	DueDateField    string
	AllowedStatuses []string
	Channel         model.Channel
}

// Summary reports what a run did.
type Summary struct {
	Scanned  int
	Notified int
	Skipped  int
	Failed   int
}

// Runner executes notification runs against an issue source and dispatcher.
type Runner struct {
	cfg        Config
	source     ghclient.IssueSource
	dispatcher *notify.Dispatcher

	// now is replaceable for tests; the run's "today" is derived from a
	// single call so classification stays deterministic per invocation.
	now func() time.Time
}

// New creates a runner.
func New(cfg Config, source ghclient.IssueSource, dispatcher *notify.Dispatcher) *Runner {
	return &Runner{
		cfg:        cfg,
		source:     source,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// Run executes one pass for the given mode. Per-issue failures are logged
// and counted, never propagated; only an unsupported mode returns an error.
func (r *Runner) Run(ctx context.Context, mode model.RunMode) (Summary, error) {
	if !mode.Valid() {
		return Summary{}, fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}

	today := classify.DateOf(r.now())
	classifier := classify.NewClassifier(r.cfg.DueDateField, r.cfg.AllowedStatuses)

	items := r.collect(ctx, mode)
	if len(items) == 0 {
		log.Info("no issues have been found", "mode", mode)
		return Summary{}, nil
	}

	var sum Summary
	for _, item := range items {
		sum.Scanned++

		fs := fields.Normalize(item.Fields, r.cfg.DueDateField)
		res := classifier.Classify(fs, today)

		if !wanted(mode, res) || !res.StatusEligible {
			log.Debug("issue skipped", "issue", item.Issue.Number,
				"classification", res.Classification(), "statusEligible", res.StatusEligible)
			sum.Skipped++
			continue
		}

		if err := r.notifyIssue(ctx, mode, item.Issue, res, today); err != nil {
			log.Error("notification failed", "issue", item.Issue.Number, "error", err)
			sum.Failed++
			continue
		}
		sum.Notified++
	}

	return sum, nil
}

// collect fetches the run's candidate items using the strategy the
// configuration selects. Fetch errors leave partial results in place and
// are treated as "fewer issues found", not a run failure.
func (r *Runner) collect(ctx context.Context, mode model.RunMode) []ghclient.ProjectItem {
	// The empty-duedate filter only exists on the project-items query, so
	// the missing-duedate mode always uses that strategy.
	if mode == model.ModeMissingDueDate {
		items, err := r.source.ListProjectItems(ctx, r.cfg.Owner, r.cfg.OwnerType,
			r.cfg.ProjectNumber, r.cfg.DueDateField,
			ghclient.ItemFilters{OpenOnly: true, EmptyDueDate: true})
		if err != nil {
			log.Error("project item fetch incomplete", "error", err, "partial", len(items))
		}
		return items
	}

	if r.cfg.Enterprise {
		items, err := r.source.ListProjectItems(ctx, r.cfg.Owner, r.cfg.OwnerType,
			r.cfg.ProjectNumber, r.cfg.DueDateField,
			ghclient.ItemFilters{OpenOnly: true})
		if err != nil {
			log.Error("project item fetch incomplete", "error", err, "partial", len(items))
		}
		return items
	}

	issues, err := r.source.ListRepositoryIssues(ctx, r.cfg.Owner, r.cfg.Repository)
	if err != nil {
		log.Error("repository issue fetch incomplete", "error", err, "partial", len(issues))
	}

	// The repository query cannot filter by project server-side; locate the
	// association matching the configured project number here.
	var items []ghclient.ProjectItem
	for _, ri := range issues {
		assoc, ok := matchProject(ri.Projects, r.cfg.ProjectNumber)
		if !ok {
			log.Debug("issue not on the configured project", "issue", ri.Issue.Number)
			continue
		}
		items = append(items, ghclient.ProjectItem{Issue: ri.Issue, Fields: assoc.Fields})
	}
	return items
}

// matchProject finds the association with the given project number.
func matchProject(projects []ghclient.ProjectAssociation, number int) (ghclient.ProjectAssociation, bool) {
	for _, p := range projects {
		if p.Number == number {
			return p, true
		}
	}
	return ghclient.ProjectAssociation{}, false
}

// wanted reports whether the classification result matches the run mode.
func wanted(mode model.RunMode, res classify.Result) bool {
	switch mode {
	case model.ModeOverdue:
		return res.Overdue
	case model.ModeExpiring:
		return res.ExpiringSoon
	case model.ModeMissingDueDate:
		return res.NoDueDate
	}
	return false
}

// notifyIssue composes and dispatches one notification over the configured
// channel.
func (r *Runner) notifyIssue(ctx context.Context, mode model.RunMode, issue model.Issue, res classify.Result, today time.Time) error {
	switch r.cfg.Channel {
	case model.ChannelComment:
		var body string
		switch mode {
		case model.ModeOverdue:
			body = notify.OverdueComment(issue, res.DueDate)
		case model.ModeExpiring:
			body = notify.ExpiringComment(issue, res.DueDate)
		case model.ModeMissingDueDate:
			body = notify.MissingDueDateComment(issue)
		}
		return r.dispatcher.Comment(ctx, issue, body)

	case model.ChannelEmail:
		var msg notify.Email
		switch mode {
		case model.ModeOverdue:
			msg = notify.OverdueEmail(issue, res.DueDate)
		case model.ModeExpiring:
			msg = notify.ExpiringEmail(issue, res.DueDate, today)
		case model.ModeMissingDueDate:
			msg = notify.MissingDueDateEmail(issue)
		}
		return r.dispatcher.Email(ctx, issue, msg)
	}

	return fmt.Errorf("unsupported channel %q", r.cfg.Channel)
}

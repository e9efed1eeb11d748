package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spiffcs/duewatch/internal/fields"
	"github.com/spiffcs/duewatch/internal/ghclient"
	"github.com/spiffcs/duewatch/internal/model"
	"github.com/spiffcs/duewatch/internal/notify"
)

const dueDateField = "Due Date"

var fixedNow = time.Date(2026, 7, 15, 9, 30, 0, 0, time.UTC)

type fakeSource struct {
	items       []ghclient.ProjectItem
	itemsErr    error
	gotFilters  ghclient.ItemFilters
	issues      []ghclient.RepoIssue
	issuesErr   error
	projectHits int
	repoHits    int
}

func (f *fakeSource) ListProjectItems(_ context.Context, _ string, _ model.OwnerType, _ int, _ string, filters ghclient.ItemFilters) ([]ghclient.ProjectItem, error) {
	f.projectHits++
	f.gotFilters = filters
	return f.items, f.itemsErr
}

func (f *fakeSource) ListRepositoryIssues(_ context.Context, _, _ string) ([]ghclient.RepoIssue, error) {
	f.repoHits++
	return f.issues, f.issuesErr
}

type fakePoster struct {
	bodies []string
	err    error
}

func (f *fakePoster) AddIssueComment(_ context.Context, _, body string) error {
	f.bodies = append(f.bodies, body)
	return f.err
}

type fakeMailer struct {
	subjects []string
	to       [][]string
}

func (f *fakeMailer) SendMail(_ context.Context, to []string, _, subject, _ string) error {
	f.subjects = append(f.subjects, subject)
	f.to = append(f.to, to)
	return nil
}

func enterpriseItem(number int, status, date string) ghclient.ProjectItem {
	byName := map[string]fields.FieldValue{}
	if status != "" {
		byName[fields.StatusField] = fields.FieldValue{Name: status}
	}
	if date != "" {
		byName[dueDateField] = fields.FieldValue{Date: date}
	}
	return ghclient.ProjectItem{
		ItemID: "ITEM",
		Issue: model.Issue{
			ID:     "ISSUE",
			Number: number,
			Title:  "Issue title",
			URL:    "https://github.com/org/repo/issues/1",
			Assignees: []model.Assignee{
				{Name: "Ada", Email: "ada@example.com", Login: "ada"},
			},
		},
		Fields: fields.RawItem{ByName: byName},
	}
}

func newTestRunner(cfg Config, source ghclient.IssueSource, poster notify.CommentPoster, mailer notify.MailSender, dryRun bool) *Runner {
	if cfg.DueDateField == "" {
		cfg.DueDateField = dueDateField
	}
	r := New(cfg, source, &notify.Dispatcher{
		DryRun:     dryRun,
		Comments:   poster,
		Mail:       mailer,
		FallbackCC: "team@example.com",
	})
	r.now = func() time.Time { return fixedNow }
	return r
}

func TestRunUnsupportedMode(t *testing.T) {
	r := newTestRunner(Config{Channel: model.ChannelComment}, &fakeSource{}, &fakePoster{}, &fakeMailer{}, false)

	_, err := r.Run(context.Background(), model.RunMode("weekly_digest"))
	if !errors.Is(err, ErrUnsupportedMode) {
		t.Fatalf("expected ErrUnsupportedMode, got %v", err)
	}
}

func TestRunOverdueComments(t *testing.T) {
	source := &fakeSource{items: []ghclient.ProjectItem{
		enterpriseItem(1, "In Progress", "2026-07-14"), // overdue, eligible
		enterpriseItem(2, "Done", "2026-07-01"),        // overdue, status suppressed
		enterpriseItem(3, "In Progress", "2026-07-20"), // not overdue
		enterpriseItem(4, "In Progress", ""),           // no due date
	}}
	poster := &fakePoster{}

	cfg := Config{Enterprise: true, Owner: "org", OwnerType: model.OwnerOrganization, ProjectNumber: 7, Channel: model.ChannelComment}
	r := newTestRunner(cfg, source, poster, &fakeMailer{}, false)

	sum, err := r.Run(context.Background(), model.ModeOverdue)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if sum.Scanned != 4 || sum.Notified != 1 || sum.Skipped != 3 || sum.Failed != 0 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if len(poster.bodies) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(poster.bodies))
	}
	want := "@ada The issue is overdue since: Jul 14, 2026"
	if poster.bodies[0] != want {
		t.Errorf("comment = %q, want %q", poster.bodies[0], want)
	}
	if source.gotFilters.EmptyDueDate || !source.gotFilters.OpenOnly {
		t.Errorf("unexpected filters: %+v", source.gotFilters)
	}
}

func TestRunExpiringEmail(t *testing.T) {
	source := &fakeSource{items: []ghclient.ProjectItem{
		enterpriseItem(1, "In review", "2026-07-17"), // today+2
	}}
	mailer := &fakeMailer{}

	cfg := Config{Enterprise: true, Channel: model.ChannelEmail}
	r := newTestRunner(cfg, source, &fakePoster{}, mailer, false)

	sum, err := r.Run(context.Background(), model.ModeExpiring)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if sum.Notified != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if len(mailer.subjects) != 1 {
		t.Fatalf("expected 1 email, got %d", len(mailer.subjects))
	}
	want := "[Reminder: Due in 2 days] Issue title (#1)"
	if mailer.subjects[0] != want {
		t.Errorf("subject = %q, want %q", mailer.subjects[0], want)
	}
	if len(mailer.to[0]) != 1 || mailer.to[0][0] != "ada@example.com" {
		t.Errorf("to = %v", mailer.to[0])
	}
}

func TestRunMissingDueDateUsesProjectStrategy(t *testing.T) {
	source := &fakeSource{items: []ghclient.ProjectItem{
		enterpriseItem(1, "In Progress", ""),
	}}
	poster := &fakePoster{}

	// Even a repository-scoped config uses the project-items strategy for
	// this mode: the empty-duedate filter only exists there.
	cfg := Config{Enterprise: false, Repository: "repo", Channel: model.ChannelComment}
	r := newTestRunner(cfg, source, poster, &fakeMailer{}, false)

	sum, err := r.Run(context.Background(), model.ModeMissingDueDate)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if source.repoHits != 0 || source.projectHits != 1 {
		t.Errorf("expected project strategy only, got project=%d repo=%d", source.projectHits, source.repoHits)
	}
	if !source.gotFilters.EmptyDueDate || !source.gotFilters.OpenOnly {
		t.Errorf("unexpected filters: %+v", source.gotFilters)
	}
	if sum.Notified != 1 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	want := "@ada Kindly set the `Due Date` for this issue."
	if poster.bodies[0] != want {
		t.Errorf("comment = %q, want %q", poster.bodies[0], want)
	}
}

func TestRunRepositoryStrategyMatchesProject(t *testing.T) {
	onProject := ghclient.RepoIssue{
		Issue: model.Issue{ID: "A", Number: 1, Title: "On board", Assignees: []model.Assignee{{Login: "ada"}}},
		Projects: []ghclient.ProjectAssociation{
			{Number: 3, Fields: fields.RawItem{Nodes: []fields.FieldNode{
				{Field: fields.FieldRef{Name: "Status"}, FieldValue: fields.FieldValue{Name: "In Progress"}},
				{Field: fields.FieldRef{Name: dueDateField}, FieldValue: fields.FieldValue{Date: "2026-07-10"}},
			}}},
			{Number: 9},
		},
	}
	offProject := ghclient.RepoIssue{
		Issue:    model.Issue{ID: "B", Number: 2, Title: "Elsewhere"},
		Projects: []ghclient.ProjectAssociation{{Number: 9}},
	}

	source := &fakeSource{issues: []ghclient.RepoIssue{onProject, offProject}}
	poster := &fakePoster{}

	cfg := Config{Enterprise: false, Owner: "org", Repository: "repo", ProjectNumber: 3, Channel: model.ChannelComment}
	r := newTestRunner(cfg, source, poster, &fakeMailer{}, false)

	sum, err := r.Run(context.Background(), model.ModeOverdue)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if source.repoHits != 1 || source.projectHits != 0 {
		t.Errorf("expected repository strategy, got project=%d repo=%d", source.projectHits, source.repoHits)
	}
	// Only the issue on project 3 is scanned; the other has no association.
	if sum.Scanned != 1 || sum.Notified != 1 {
		t.Errorf("unexpected summary: %+v", sum)
	}
}

func TestRunDryRunComposesWithoutSending(t *testing.T) {
	source := &fakeSource{items: []ghclient.ProjectItem{
		enterpriseItem(1, "In Progress", "2026-07-01"),
	}}
	poster := &fakePoster{}
	mailer := &fakeMailer{}

	cfg := Config{Enterprise: true, Channel: model.ChannelComment}
	r := newTestRunner(cfg, source, poster, mailer, true)

	sum, err := r.Run(context.Background(), model.ModeOverdue)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if sum.Notified != 1 {
		t.Errorf("dry run still counts composed notifications: %+v", sum)
	}
	if len(poster.bodies) != 0 || len(mailer.subjects) != 0 {
		t.Error("dry run must not invoke send collaborators")
	}
}

func TestRunIsolatesPerIssueFailures(t *testing.T) {
	source := &fakeSource{items: []ghclient.ProjectItem{
		enterpriseItem(1, "In Progress", "2026-07-01"),
		enterpriseItem(2, "In Progress", "2026-07-02"),
	}}
	poster := &fakePoster{err: errors.New("boom")}

	cfg := Config{Enterprise: true, Channel: model.ChannelComment}
	r := newTestRunner(cfg, source, poster, &fakeMailer{}, false)

	sum, err := r.Run(context.Background(), model.ModeOverdue)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	// Both issues attempted despite the first failure.
	if sum.Failed != 2 || sum.Scanned != 2 {
		t.Errorf("unexpected summary: %+v", sum)
	}
}

func TestRunPartialFetchStillProcessed(t *testing.T) {
	source := &fakeSource{
		items:    []ghclient.ProjectItem{enterpriseItem(1, "In Progress", "2026-07-01")},
		itemsErr: errors.New("page 2 failed"),
	}
	poster := &fakePoster{}

	cfg := Config{Enterprise: true, Channel: model.ChannelComment}
	r := newTestRunner(cfg, source, poster, &fakeMailer{}, false)

	sum, err := r.Run(context.Background(), model.ModeOverdue)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if sum.Notified != 1 {
		t.Errorf("partial results should still be processed: %+v", sum)
	}
}

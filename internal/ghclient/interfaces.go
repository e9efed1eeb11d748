// Package ghclient provides GitHub API client functionality.
package ghclient

import (
	"context"

	"github.com/spiffcs/duewatch/internal/model"
)

// IssueSource defines the read side of the GitHub API used by the runner.
// Both retrieval strategies accumulate pages in server order; on a page
// failure they return what was accumulated together with the error.
type IssueSource interface {
	ListProjectItems(ctx context.Context, owner string, ownerType model.OwnerType, projectNumber int, dueDateField string, filters ItemFilters) ([]ProjectItem, error)
	ListRepositoryIssues(ctx context.Context, owner, repo string) ([]RepoIssue, error)
}

// CommentPoster posts notification comments against issues.
type CommentPoster interface {
	AddIssueComment(ctx context.Context, subjectID, body string) error
}

// Ensure Client implements both collaborator interfaces.
var (
	_ IssueSource   = (*Client)(nil)
	_ CommentPoster = (*Client)(nil)
)

package ghclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spiffcs/duewatch/internal/fields"
	"github.com/spiffcs/duewatch/internal/log"
	"github.com/spiffcs/duewatch/internal/model"
)

// pageSize is the number of items requested per GraphQL page.
const pageSize = 100

// graphqlRequest represents a GraphQL request payload.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlResponse represents a generic GraphQL response.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

type graphqlError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// pageInfo is the cursor state of a paginated connection.
type pageInfo struct {
	EndCursor   string `json:"endCursor"`
	HasNextPage bool   `json:"hasNextPage"`
}

// ItemFilters narrow enterprise project-item retrieval. They are applied to
// each page before accumulation. The empty-duedate filter is re-checked
// client-side by the caller because some project configurations return date
// fields the filter missed.
type ItemFilters struct {
	OpenOnly     bool
	EmptyDueDate bool
	Status       string
}

// ProjectItem joins an issue with the raw project field values of its board
// entry.
type ProjectItem struct {
	ItemID string
	Issue  model.Issue
	Fields fields.RawItem
}

// ProjectAssociation is one project-board entry of a repository issue.
type ProjectAssociation struct {
	Number int
	Title  string
	Fields fields.RawItem
}

// RepoIssue is an issue carrying its project-board associations. The
// repository query cannot filter server-side, so the caller locates the
// association matching the configured project number.
type RepoIssue struct {
	Issue    model.Issue
	Projects []ProjectAssociation
}

// executeGraphQL executes a GraphQL query against the configured endpoint.
// Structured errors in the response payload are logged, not raised; only
// transport-level failures return an error.
func (c *Client) executeGraphQL(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	reqBody := graphqlRequest{Query: query, Variables: variables}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create GraphQL request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GraphQL request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read GraphQL response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GraphQL request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var gqlResp graphqlResponse
	if err := json.Unmarshal(respBody, &gqlResp); err != nil {
		return nil, fmt.Errorf("failed to parse GraphQL response: %w", err)
	}

	if len(gqlResp.Errors) > 0 {
		// Log errors but don't fail - partial data may still be usable
		for _, e := range gqlResp.Errors {
			log.Warn("GraphQL error", "message", e.Message, "type", e.Type)
		}
	}

	return gqlResp.Data, nil
}

// assigneeNode matches the assignees connection element.
type assigneeNode struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Login string `json:"login"`
}

func toAssignees(nodes []assigneeNode) []model.Assignee {
	var out []model.Assignee
	for _, n := range nodes {
		out = append(out, model.Assignee{Name: n.Name, Email: n.Email, Login: n.Login})
	}
	return out
}

// projectItemNode is the wire shape of one enterprise project item. The two
// fieldValueByName selections are aliased so they can coexist in one query.
type projectItemNode struct {
	ID      string              `json:"id"`
	DueDate *fields.FieldValue  `json:"duedate"`
	Status  *fields.FieldValue  `json:"status"`
	Content projectContentIssue `json:"content"`
}

type projectContentIssue struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Number    int    `json:"number"`
	State     string `json:"state"`
	URL       string `json:"url"`
	Assignees struct {
		Nodes []assigneeNode `json:"nodes"`
	} `json:"assignees"`
}

const projectItemsQuery = `
query ProjectItems($owner: String!, $projectNumber: Int!, $duedate: String!, $after: String) {
  %s(login: $owner) {
    projectV2(number: $projectNumber) {
      items(first: %d, after: $after) {
        nodes {
          id
          duedate: fieldValueByName(name: $duedate) {
            ... on ProjectV2ItemFieldDateValue { date }
          }
          status: fieldValueByName(name: "Status") {
            ... on ProjectV2ItemFieldSingleSelectValue { name }
          }
          content {
            ... on Issue {
              id
              title
              number
              state
              url
              assignees(first: 20) {
                nodes { name email login }
              }
            }
          }
        }
        pageInfo {
          endCursor
          hasNextPage
        }
      }
    }
  }
}`

// ListProjectItems fetches all items of a numbered ProjectV2 owned by a user
// or organization, paging until no pages remain. Filters are applied per
// page before accumulation. A failed page fetch returns what was accumulated
// so far along with the error; callers treat partial results as the run's
// input rather than a hard failure.
func (c *Client) ListProjectItems(ctx context.Context, owner string, ownerType model.OwnerType, projectNumber int, dueDateField string, filters ItemFilters) ([]ProjectItem, error) {
	query := fmt.Sprintf(projectItemsQuery, ownerType, pageSize)

	var items []ProjectItem
	var after any

	for {
		variables := map[string]any{
			"owner":         owner,
			"projectNumber": projectNumber,
			"duedate":       dueDateField,
			"after":         after,
		}

		data, err := c.executeGraphQL(ctx, query, variables)
		if err != nil {
			log.Warn("project items page fetch failed", "owner", owner, "project", projectNumber, "error", err)
			return items, err
		}

		nodes, page, err := parseProjectItemsPage(data, ownerType)
		if err != nil {
			log.Warn("project items page parse failed", "owner", owner, "project", projectNumber, "error", err)
			return items, err
		}

		for _, node := range nodes {
			if !matchesFilters(node, filters) {
				continue
			}
			items = append(items, toProjectItem(node, dueDateField))
		}

		log.Debug("fetched project items page", "accumulated", len(items), "hasNextPage", page.HasNextPage)

		if !page.HasNextPage {
			return items, nil
		}
		after = page.EndCursor
	}
}

// parseProjectItemsPage unwraps one page of the project items connection.
func parseProjectItemsPage(data json.RawMessage, ownerType model.OwnerType) ([]projectItemNode, pageInfo, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, pageInfo{}, fmt.Errorf("failed to parse project items response: %w", err)
	}

	ownerData, ok := top[string(ownerType)]
	if !ok || string(ownerData) == "null" {
		return nil, pageInfo{}, fmt.Errorf("no %s data in response", ownerType)
	}

	var owner struct {
		ProjectV2 *struct {
			Items struct {
				Nodes    []projectItemNode `json:"nodes"`
				PageInfo pageInfo          `json:"pageInfo"`
			} `json:"items"`
		} `json:"projectV2"`
	}
	if err := json.Unmarshal(ownerData, &owner); err != nil {
		return nil, pageInfo{}, fmt.Errorf("failed to parse project items: %w", err)
	}
	if owner.ProjectV2 == nil {
		return nil, pageInfo{}, fmt.Errorf("project not found")
	}

	return owner.ProjectV2.Items.Nodes, owner.ProjectV2.Items.PageInfo, nil
}

// matchesFilters applies the per-page item filters.
func matchesFilters(node projectItemNode, filters ItemFilters) bool {
	if filters.OpenOnly && node.Content.State != "OPEN" {
		return false
	}
	if filters.EmptyDueDate && node.DueDate != nil && node.DueDate.Date != "" {
		return false
	}
	if filters.Status != "" {
		if node.Status == nil || node.Status.Name != filters.Status {
			return false
		}
	}
	return true
}

// toProjectItem converts a wire node into a ProjectItem carrying the
// mapping-shaped raw field values.
func toProjectItem(node projectItemNode, dueDateField string) ProjectItem {
	byName := make(map[string]fields.FieldValue)
	if node.Status != nil {
		byName[fields.StatusField] = *node.Status
	}
	if node.DueDate != nil {
		byName[dueDateField] = *node.DueDate
	}

	return ProjectItem{
		ItemID: node.ID,
		Issue: model.Issue{
			ID:        node.Content.ID,
			Number:    node.Content.Number,
			Title:     node.Content.Title,
			State:     node.Content.State,
			URL:       node.Content.URL,
			Assignees: toAssignees(node.Content.Assignees.Nodes),
		},
		Fields: fields.RawItem{ByName: byName},
	}
}

const repoIssuesQuery = `
query RepoIssues($owner: String!, $repo: String!, $after: String) {
  repository(owner: $owner, name: $repo) {
    issues(first: %d, after: $after, states: [OPEN]) {
      nodes {
        id
        title
        number
        url
        assignees(first: 100) {
          nodes { name email login }
        }
        projectItems(first: 10) {
          nodes {
            project {
              number
              title
            }
            fieldValues(first: 20) {
              nodes {
                ... on ProjectV2ItemFieldDateValue {
                  field { ... on ProjectV2FieldCommon { name } }
                  date
                }
                ... on ProjectV2ItemFieldSingleSelectValue {
                  field { ... on ProjectV2FieldCommon { name } }
                  name
                }
              }
            }
          }
        }
      }
      pageInfo {
        endCursor
        hasNextPage
      }
    }
  }
}`

// repoIssueNode is the wire shape of one repository issue with its project
// associations.
type repoIssueNode struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Number    int    `json:"number"`
	URL       string `json:"url"`
	Assignees struct {
		Nodes []assigneeNode `json:"nodes"`
	} `json:"assignees"`
	ProjectItems struct {
		Nodes []struct {
			Project struct {
				Number int    `json:"number"`
				Title  string `json:"title"`
			} `json:"project"`
			FieldValues struct {
				Nodes []fields.FieldNode `json:"nodes"`
			} `json:"fieldValues"`
		} `json:"nodes"`
	} `json:"projectItems"`
}

// ListRepositoryIssues fetches all OPEN issues of a repository along with
// their project-board associations, paging until no pages remain. Partial
// accumulation survives a failed page fetch.
func (c *Client) ListRepositoryIssues(ctx context.Context, owner, repo string) ([]RepoIssue, error) {
	query := fmt.Sprintf(repoIssuesQuery, pageSize)

	var issues []RepoIssue
	var after any

	for {
		variables := map[string]any{
			"owner": owner,
			"repo":  repo,
			"after": after,
		}

		data, err := c.executeGraphQL(ctx, query, variables)
		if err != nil {
			log.Warn("repository issues page fetch failed", "repo", owner+"/"+repo, "error", err)
			return issues, err
		}

		nodes, page, err := parseRepoIssuesPage(data)
		if err != nil {
			log.Warn("repository issues page parse failed", "repo", owner+"/"+repo, "error", err)
			return issues, err
		}

		for _, node := range nodes {
			issues = append(issues, toRepoIssue(node))
		}

		log.Debug("fetched repository issues page", "accumulated", len(issues), "hasNextPage", page.HasNextPage)

		if !page.HasNextPage {
			return issues, nil
		}
		after = page.EndCursor
	}
}

// parseRepoIssuesPage unwraps one page of the repository issues connection.
func parseRepoIssuesPage(data json.RawMessage) ([]repoIssueNode, pageInfo, error) {
	var top struct {
		Repository *struct {
			Issues struct {
				Nodes    []repoIssueNode `json:"nodes"`
				PageInfo pageInfo        `json:"pageInfo"`
			} `json:"issues"`
		} `json:"repository"`
	}
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, pageInfo{}, fmt.Errorf("failed to parse repository issues response: %w", err)
	}
	if top.Repository == nil {
		return nil, pageInfo{}, fmt.Errorf("repository not found")
	}

	return top.Repository.Issues.Nodes, top.Repository.Issues.PageInfo, nil
}

func toRepoIssue(node repoIssueNode) RepoIssue {
	issue := RepoIssue{
		Issue: model.Issue{
			ID:        node.ID,
			Number:    node.Number,
			Title:     node.Title,
			State:     "OPEN",
			URL:       node.URL,
			Assignees: toAssignees(node.Assignees.Nodes),
		},
	}

	for _, pi := range node.ProjectItems.Nodes {
		issue.Projects = append(issue.Projects, ProjectAssociation{
			Number: pi.Project.Number,
			Title:  pi.Project.Title,
			Fields: fields.RawItem{Nodes: pi.FieldValues.Nodes},
		})
	}

	return issue
}

const addCommentMutation = `
mutation AddIssueComment($subjectId: ID!, $body: String!) {
  addComment(input: {subjectId: $subjectId, body: $body}) {
    clientMutationId
  }
}`

// AddIssueComment posts a comment against an issue's GraphQL node id.
func (c *Client) AddIssueComment(ctx context.Context, subjectID, body string) error {
	variables := map[string]any{
		"subjectId": subjectID,
		"body":      body,
	}

	if _, err := c.executeGraphQL(ctx, addCommentMutation, variables); err != nil {
		return fmt.Errorf("failed to add issue comment: %w", err)
	}
	return nil
}

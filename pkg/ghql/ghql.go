// Package ghql speaks the two fixed GraphQL documents this app needs against
// the GitHub GraphQL API: a newest-first listing of open pull requests for a
// single repository, and a single-item lookup by number used for
// re-validation of a displayed pull request.
package ghql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultEndpoint is the production GitHub GraphQL endpoint.
const DefaultEndpoint = "https://api.github.com/graphql"

// listQuery fetches the 30 newest open pull requests of a repository.
const listQuery = `query($owner: String!, $repo: String!) {
	repository(owner: $owner, name: $repo) {
		pullRequests(first: 30, states: [OPEN], orderBy: {field: CREATED_AT, direction: DESC}) {
			nodes {
				title
				number
				url
				createdAt
				authorAssociation
				author { login }
				isDraft
				reviewRequests(last: 1) { totalCount }
				reviews(last: 1) { totalCount }
				assignees(first: 5) { nodes { login } }
			}
		}
	}
}`

// singleQuery fetches one pull request by number with the same field set.
const singleQuery = `query($owner: String!, $repo: String!, $number: Int!) {
	repository(owner: $owner, name: $repo) {
		pullRequest(number: $number) {
			title
			number
			url
			createdAt
			authorAssociation
			author { login }
			isDraft
			reviewRequests(last: 1) { totalCount }
			reviews(last: 1) { totalCount }
			assignees(first: 5) { nodes { login } }
		}
	}
}`

// PullRequestSummary is an immutable projection of a remote pull request,
// valid for the poll cycle that fetched it.
type PullRequestSummary struct {
	CreatedAt          time.Time
	Title              string
	URL                string
	Author             string
	AuthorAssociation  string
	Assignees          []string
	Number             int
	ReviewRequestCount int
	ReviewCount        int
	IsDraft            bool
}

// Client executes the fixed query documents with bearer authentication.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

// NewClient returns a client using the given HTTP client (typically built
// from an oauth2 token source) and endpoint. An empty endpoint selects the
// production GitHub API.
func NewClient(httpClient *http.Client, endpoint string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{httpClient: httpClient, endpoint: endpoint}
}

type request struct {
	Variables map[string]any `json:"variables"`
	Query     string         `json:"query"`
}

// prNode mirrors the field selection shared by both documents.
type prNode struct {
	Title             string `json:"title"`
	Number            int    `json:"number"`
	URL               string `json:"url"`
	CreatedAt         string `json:"createdAt"`
	AuthorAssociation string `json:"authorAssociation"`
	Author            struct {
		Login string `json:"login"`
	} `json:"author"`
	IsDraft        bool `json:"isDraft"`
	ReviewRequests struct {
		TotalCount int `json:"totalCount"`
	} `json:"reviewRequests"`
	Reviews struct {
		TotalCount int `json:"totalCount"`
	} `json:"reviews"`
	Assignees struct {
		Nodes []struct {
			Login string `json:"login"`
		} `json:"nodes"`
	} `json:"assignees"`
}

type listResponse struct {
	Data struct {
		Repository struct {
			PullRequests struct {
				Nodes []prNode `json:"nodes"`
			} `json:"pullRequests"`
		} `json:"repository"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type singleResponse struct {
	Data struct {
		Repository struct {
			PullRequest *prNode `json:"pullRequest"`
		} `json:"repository"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (n *prNode) summary() (PullRequestSummary, error) {
	createdAt, err := time.Parse(time.RFC3339, n.CreatedAt)
	if err != nil {
		return PullRequestSummary{}, fmt.Errorf("parse createdAt %q: %w", n.CreatedAt, err)
	}
	assignees := make([]string, 0, len(n.Assignees.Nodes))
	for _, a := range n.Assignees.Nodes {
		assignees = append(assignees, a.Login)
	}
	return PullRequestSummary{
		Title:              n.Title,
		Number:             n.Number,
		URL:                n.URL,
		CreatedAt:          createdAt,
		AuthorAssociation:  n.AuthorAssociation,
		Author:             n.Author.Login,
		IsDraft:            n.IsDraft,
		ReviewRequestCount: n.ReviewRequests.TotalCount,
		ReviewCount:        n.Reviews.TotalCount,
		Assignees:          assignees,
	}, nil
}

// execute posts a query document and decodes the response body into out.
func (c *Client) execute(ctx context.Context, token, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(request{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create graphql request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graphql request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("graphql request: HTTP %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode graphql response: %w", err)
	}
	return nil
}

// ListOpenPullRequests fetches up to 30 open pull requests of owner/repo,
// newest first.
func (c *Client) ListOpenPullRequests(ctx context.Context, token, owner, repo string) ([]PullRequestSummary, error) {
	var resp listResponse
	vars := map[string]any{"owner": owner, "repo": repo}
	if err := c.execute(ctx, token, listQuery, vars, &resp); err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %s", resp.Errors[0].Message)
	}

	nodes := resp.Data.Repository.PullRequests.Nodes
	prs := make([]PullRequestSummary, 0, len(nodes))
	for i := range nodes {
		pr, err := nodes[i].summary()
		if err != nil {
			return nil, err
		}
		prs = append(prs, pr)
	}
	return prs, nil
}

// PullRequest fetches the current state of a single pull request by number.
// It returns nil when the pull request no longer exists.
func (c *Client) PullRequest(ctx context.Context, token, owner, repo string, number int) (*PullRequestSummary, error) {
	var resp singleResponse
	vars := map[string]any{"owner": owner, "repo": repo, "number": number}
	if err := c.execute(ctx, token, singleQuery, vars, &resp); err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %s", resp.Errors[0].Message)
	}

	node := resp.Data.Repository.PullRequest
	if node == nil {
		return nil, nil
	}
	pr, err := node.summary()
	if err != nil {
		return nil, err
	}
	return &pr, nil
}

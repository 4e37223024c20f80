// Package tracker fetches issue records from a JIRA-style issue tracker.
package tracker

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Issue is the tracker's view of one referenced issue.
type Issue struct {
	Summary  string
	Assignee string
	Reporter string
	Priority string
	Status   string
	URL      string
}

// Client looks up issues by id.
type Client interface {
	GetIssue(id string) (Issue, error)
}

// ServiceError means the tracker could not supply an issue, either because
// retries were exhausted or because the tracker rejected the request
// outright. A release note is never published around a missing issue.
type ServiceError struct {
	IssueID  string
	Attempts int
	Err      error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("ticket service failed for issue %s after %d attempt(s): %v", e.IssueID, e.Attempts, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// RetryPolicy bounds the lookup retries: Attempts total tries, waiting
// InitialBackoff before the second and doubling before each one after.
type RetryPolicy struct {
	Attempts       int
	InitialBackoff time.Duration
}

// DefaultRetryPolicy matches the historical behavior: three tries, starting
// at a two second wait.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, InitialBackoff: 2 * time.Second}
}

// JiraClient is a Client over the JIRA REST v2 issue endpoint with basic
// auth. Transient failures (5xx, 429, transport errors) are retried per the
// policy; other rejections fail immediately.
type JiraClient struct {
	httpClient *http.Client
	baseURL    string
	account    string
	token      string
	retry      RetryPolicy

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

func NewJiraClient(baseURL, account, token string, retry RetryPolicy) *JiraClient {
	return &JiraClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		account:    account,
		token:      token,
		retry:      retry,
		sleep:      time.Sleep,
	}
}

func (c *JiraClient) GetIssue(id string) (Issue, error) {
	url := c.baseURL + "/rest/api/2/issue/" + id

	backoff := c.retry.InitialBackoff
	var lastErr error
	for attempt := 1; attempt <= c.retry.Attempts; attempt++ {
		if attempt > 1 {
			c.sleep(backoff)
			backoff *= 2
		}

		issue, retryable, err := c.fetch(url, id)
		if err == nil {
			return issue, nil
		}
		lastErr = err
		if !retryable {
			return Issue{}, &ServiceError{IssueID: id, Attempts: attempt, Err: err}
		}
	}
	return Issue{}, &ServiceError{IssueID: id, Attempts: c.retry.Attempts, Err: lastErr}
}

func (c *JiraClient) fetch(url, id string) (Issue, bool, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return Issue{}, false, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.account, c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Issue{}, true, fmt.Errorf("issue request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return Issue{}, retryable, fmt.Errorf("issue request returned %d", resp.StatusCode)
	}

	var body jiraIssue
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Issue{}, false, fmt.Errorf("decode issue response: %w", err)
	}

	issue := Issue{
		Summary:  body.Fields.Summary,
		Reporter: body.Fields.Reporter.Name,
		Priority: body.Fields.Priority.Name,
		Status:   body.Fields.Status.Name,
		URL:      c.baseURL + "/browse/" + id,
	}
	if body.Fields.Assignee != nil {
		issue.Assignee = body.Fields.Assignee.Name
	}
	return issue, false, nil
}

// JIRA REST response types, limited to the fields the document needs.

type jiraIssue struct {
	Fields jiraFields `json:"fields"`
}

type jiraFields struct {
	Summary  string    `json:"summary"`
	Assignee *jiraName `json:"assignee"`
	Reporter jiraName  `json:"reporter"`
	Priority jiraName  `json:"priority"`
	Status   jiraName  `json:"status"`
}

type jiraName struct {
	Name string `json:"name"`
}

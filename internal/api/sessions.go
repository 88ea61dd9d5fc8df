package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/julianstephens/callcoach/internal/models"
)

// ListSessions returns the sessions matching filter.
func (c *Client) ListSessions(ctx context.Context, filter models.SessionFilter) ([]models.Session, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if filter.TemplateID != "" {
		q.Set("template_id", filter.TemplateID)
	}
	if filter.IncludeTemplate {
		q.Set("include_template", "true")
	}
	if filter.IncludeUsers {
		q.Set("include_users", "true")
	}

	var resp struct {
		Sessions []models.Session `json:"sessions"`
	}
	if err := c.do(ctx, http.MethodGet, "/sessions", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// GetSession returns a session with its template snapshot, users and scores.
func (c *Client) GetSession(ctx context.Context, id string) (models.SessionDetail, error) {
	q := url.Values{}
	q.Set("include_template", "true")
	q.Set("include_users", "true")

	var resp models.SessionDetail
	if err := c.do(ctx, http.MethodGet, "/sessions/"+escape(id), q, nil, &resp); err != nil {
		return models.SessionDetail{}, err
	}
	return resp, nil
}

func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+escape(id), nil, nil, nil)
}

// SubmitScore upserts the score of one criterion.
func (c *Client) SubmitScore(ctx context.Context, sessionID, criteriaID string, in models.ScoreInput) (models.Score, error) {
	var resp struct {
		Score models.Score `json:"score"`
	}
	path := "/sessions/" + escape(sessionID) + "/scores/" + escape(criteriaID)
	if err := c.do(ctx, http.MethodPut, path, nil, in, &resp); err != nil {
		return models.Score{}, err
	}
	return resp.Score, nil
}

// CompleteSession finalizes a session and returns the server's view of it.
func (c *Client) CompleteSession(ctx context.Context, id string) (models.Session, error) {
	var resp struct {
		Session models.Session `json:"session"`
	}
	if err := c.do(ctx, http.MethodPost, "/sessions/"+escape(id)+"/complete", nil, struct{}{}, &resp); err != nil {
		return models.Session{}, err
	}
	return resp.Session, nil
}

// ListTeam returns organization members.
func (c *Client) ListTeam(ctx context.Context, filter models.TeamFilter) ([]models.TeamMember, error) {
	q := url.Values{}
	if filter.IsActive != nil {
		q.Set("is_active", strconv.FormatBool(*filter.IsActive))
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(filter.PageSize))
	}

	var resp struct {
		Members []models.TeamMember `json:"members"`
		Total   int                 `json:"total"`
	}
	if err := c.do(ctx, http.MethodGet, "/team", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Members, nil
}

package api

import (
	"context"
	"net/http"

	"github.com/julianstephens/callcoach/internal/models"
)

type templateEnvelope struct {
	Template models.Template `json:"template"`
}

type groupEnvelope struct {
	Group models.Group `json:"group"`
}

type criterionEnvelope struct {
	Criterion models.Criterion `json:"criteria"`
}

// ListTemplates returns every template of the organization.
func (c *Client) ListTemplates(ctx context.Context) ([]models.Template, error) {
	var resp struct {
		Templates []models.Template `json:"templates"`
	}
	if err := c.do(ctx, http.MethodGet, "/templates", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Templates, nil
}

// GetTemplate returns a template with its groups and criteria.
func (c *Client) GetTemplate(ctx context.Context, id string) (models.TemplateDetail, error) {
	var resp models.TemplateDetail
	if err := c.do(ctx, http.MethodGet, "/templates/"+escape(id), nil, nil, &resp); err != nil {
		return models.TemplateDetail{}, err
	}
	return resp, nil
}

// CreateTemplate creates a template. The draft's temporary id is not sent.
func (c *Client) CreateTemplate(ctx context.Context, t models.Template) (models.Template, error) {
	t.ID = ""
	var resp templateEnvelope
	if err := c.do(ctx, http.MethodPost, "/templates", nil, t, &resp); err != nil {
		return models.Template{}, err
	}
	return resp.Template, nil
}

func (c *Client) UpdateTemplate(ctx context.Context, t models.Template) (models.Template, error) {
	var resp templateEnvelope
	if err := c.do(ctx, http.MethodPut, "/templates/"+escape(t.ID), nil, t, &resp); err != nil {
		return models.Template{}, err
	}
	return resp.Template, nil
}

// PublishTemplate publishes a draft template.
func (c *Client) PublishTemplate(ctx context.Context, id string, req models.PublishRequest) (models.Template, error) {
	var resp templateEnvelope
	if err := c.do(ctx, http.MethodPost, "/templates/"+escape(id)+"/publish", nil, req, &resp); err != nil {
		return models.Template{}, err
	}
	return resp.Template, nil
}

func (c *Client) CreateGroup(ctx context.Context, templateID string, g models.Group) (models.Group, error) {
	g.ID = ""
	g.TemplateID = templateID
	var resp groupEnvelope
	if err := c.do(ctx, http.MethodPost, "/templates/"+escape(templateID)+"/groups", nil, g, &resp); err != nil {
		return models.Group{}, err
	}
	return resp.Group, nil
}

func (c *Client) UpdateGroup(ctx context.Context, templateID string, g models.Group) (models.Group, error) {
	g.TemplateID = templateID
	var resp groupEnvelope
	path := "/templates/" + escape(templateID) + "/groups/" + escape(g.ID)
	if err := c.do(ctx, http.MethodPut, path, nil, g, &resp); err != nil {
		return models.Group{}, err
	}
	return resp.Group, nil
}

func (c *Client) DeleteGroup(ctx context.Context, templateID, groupID string) error {
	path := "/templates/" + escape(templateID) + "/groups/" + escape(groupID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) CreateCriterion(ctx context.Context, templateID string, cr models.Criterion) (models.Criterion, error) {
	cr.ID = ""
	cr.TemplateID = templateID
	var resp criterionEnvelope
	if err := c.do(ctx, http.MethodPost, "/templates/"+escape(templateID)+"/criteria", nil, cr, &resp); err != nil {
		return models.Criterion{}, err
	}
	return resp.Criterion, nil
}

func (c *Client) UpdateCriterion(ctx context.Context, templateID string, cr models.Criterion) (models.Criterion, error) {
	cr.TemplateID = templateID
	var resp criterionEnvelope
	path := "/templates/" + escape(templateID) + "/criteria/" + escape(cr.ID)
	if err := c.do(ctx, http.MethodPut, path, nil, cr, &resp); err != nil {
		return models.Criterion{}, err
	}
	return resp.Criterion, nil
}

func (c *Client) DeleteCriterion(ctx context.Context, templateID, criterionID string) error {
	path := "/templates/" + escape(templateID) + "/criteria/" + escape(criterionID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// CreateAssignment assigns a template to one user.
func (c *Client) CreateAssignment(ctx context.Context, a models.Assignment) (models.Assignment, error) {
	var resp struct {
		Assignment models.Assignment `json:"assignment"`
	}
	if err := c.do(ctx, http.MethodPost, "/template-assignments", nil, a, &resp); err != nil {
		return models.Assignment{}, err
	}
	return resp.Assignment, nil
}

package service

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/mentiondesk/mentiondesk/internal/adapter/outbound/gateway"
)

// ProjectService manages projects.
type ProjectService struct {
	gw     Gateway
	logger *slog.Logger
}

// NewProjectService creates a new ProjectService.
func NewProjectService(gw Gateway, logger *slog.Logger) *ProjectService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectService{gw: gw, logger: logger}
}

// ProjectInput holds the editable fields of a project.
type ProjectInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// List returns one page of the user's projects.
func (s *ProjectService) List(ctx context.Context, opts ListOptions) (*ProjectPage, error) {
	if err := checkInput(opts); err != nil {
		return nil, err
	}
	ep := gateway.ProjectsList
	resp, err := s.gw.Do(ctx, gateway.Call{Endpoint: ep, Query: opts.query()})
	if err != nil {
		return nil, err
	}
	var items []Project
	if err := decode(ctx, s.logger, ep, resp, &items); err != nil {
		return nil, err
	}
	return &ProjectPage{Items: items, Pagination: resp.Pagination}, nil
}

// Get returns one project.
func (s *ProjectService) Get(ctx context.Context, projectID string) (*Project, error) {
	if err := checkID("projectId", projectID); err != nil {
		return nil, err
	}
	return s.one(ctx, gateway.Call{Endpoint: gateway.ProjectGet, Params: projectParams(projectID)})
}

// Create creates a project.
func (s *ProjectService) Create(ctx context.Context, in ProjectInput) (*Project, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}
	p, err := s.one(ctx, gateway.Call{Endpoint: gateway.ProjectCreate, Body: in})
	if err != nil {
		return nil, err
	}
	s.logger.Info("project created", "id", p.ID, "name", p.Name)
	return p, nil
}

// Update replaces the editable fields of a project.
func (s *ProjectService) Update(ctx context.Context, projectID string, in ProjectInput) (*Project, error) {
	if err := checkID("projectId", projectID); err != nil {
		return nil, err
	}
	if err := checkInput(in); err != nil {
		return nil, err
	}
	return s.one(ctx, gateway.Call{Endpoint: gateway.ProjectUpdate, Params: projectParams(projectID), Body: in})
}

// Delete deletes a project. Everything cached for it is dropped from every pool.
func (s *ProjectService) Delete(ctx context.Context, projectID string) error {
	if err := checkID("projectId", projectID); err != nil {
		return err
	}
	if _, err := s.gw.Do(ctx, gateway.Call{Endpoint: gateway.ProjectDelete, Params: projectParams(projectID)}); err != nil {
		return err
	}
	s.logger.Info("project deleted", "id", projectID)
	return nil
}

func (s *ProjectService) one(ctx context.Context, call gateway.Call) (*Project, error) {
	resp, err := s.gw.Do(ctx, call)
	if err != nil {
		return nil, err
	}
	var p Project
	if err := decode(ctx, s.logger, call.Endpoint, resp, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	return q
}

package service

import (
	"context"
	"log/slog"

	"github.com/mentiondesk/mentiondesk/internal/adapter/outbound/gateway"
)

// SettingsService reads and writes per-project settings.
type SettingsService struct {
	gw     Gateway
	logger *slog.Logger
}

// NewSettingsService creates a new SettingsService.
func NewSettingsService(gw Gateway, logger *slog.Logger) *SettingsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsService{gw: gw, logger: logger}
}

// Get returns the settings of a project.
func (s *SettingsService) Get(ctx context.Context, projectID string) (*ProjectSettings, error) {
	if err := checkID("projectId", projectID); err != nil {
		return nil, err
	}
	return s.call(ctx, gateway.Call{Endpoint: gateway.SettingsGet, Params: projectParams(projectID)})
}

// Update replaces the settings of a project.
func (s *SettingsService) Update(ctx context.Context, projectID string, in ProjectSettings) (*ProjectSettings, error) {
	if err := checkID("projectId", projectID); err != nil {
		return nil, err
	}
	in.ProjectID = projectID
	if err := checkInput(in); err != nil {
		return nil, err
	}
	return s.call(ctx, gateway.Call{Endpoint: gateway.SettingsUpdate, Params: projectParams(projectID), Body: in})
}

func (s *SettingsService) call(ctx context.Context, call gateway.Call) (*ProjectSettings, error) {
	resp, err := s.gw.Do(ctx, call)
	if err != nil {
		return nil, err
	}
	var out ProjectSettings
	if err := decode(ctx, s.logger, call.Endpoint, resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mentiondesk/mentiondesk/internal/adapter/outbound/gateway"
)

// KeywordService manages the search terms of a project.
type KeywordService struct {
	gw     Gateway
	logger *slog.Logger
}

// NewKeywordService creates a new KeywordService.
func NewKeywordService(gw Gateway, logger *slog.Logger) *KeywordService {
	if logger == nil {
		logger = slog.Default()
	}
	return &KeywordService{gw: gw, logger: logger}
}

type keywordInput struct {
	Term string `json:"term" validate:"required,max=100"`
}

// List returns the keywords of a project.
func (s *KeywordService) List(ctx context.Context, projectID string) ([]Keyword, error) {
	if err := checkID("projectId", projectID); err != nil {
		return nil, err
	}
	ep := gateway.KeywordsList
	resp, err := s.gw.Do(ctx, gateway.Call{Endpoint: ep, Params: projectParams(projectID)})
	if err != nil {
		return nil, err
	}
	var items []Keyword
	if err := decode(ctx, s.logger, ep, resp, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Add adds a keyword. Cached keywords and mentions of the project are dropped.
func (s *KeywordService) Add(ctx context.Context, projectID, term string) (*Keyword, error) {
	if err := checkID("projectId", projectID); err != nil {
		return nil, err
	}
	in := keywordInput{Term: strings.TrimSpace(term)}
	if err := checkInput(in); err != nil {
		return nil, err
	}
	ep := gateway.KeywordAdd
	resp, err := s.gw.Do(ctx, gateway.Call{Endpoint: ep, Params: projectParams(projectID), Body: in})
	if err != nil {
		return nil, err
	}
	var k Keyword
	if err := decode(ctx, s.logger, ep, resp, &k); err != nil {
		return nil, err
	}
	return &k, nil
}

// Remove removes a keyword.
func (s *KeywordService) Remove(ctx context.Context, projectID, keywordID string) error {
	if err := checkID("projectId", projectID); err != nil {
		return err
	}
	if err := checkID("keywordId", keywordID); err != nil {
		return err
	}
	params := projectParams(projectID)
	params[gateway.ParamKeywordID] = keywordID
	_, err := s.gw.Do(ctx, gateway.Call{Endpoint: gateway.KeywordRemove, Params: params})
	return err
}

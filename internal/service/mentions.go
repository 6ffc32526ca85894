package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/mentiondesk/mentiondesk/internal/adapter/outbound/gateway"
	"github.com/mentiondesk/mentiondesk/internal/domain/filter"
)

// MentionAction is a triage action on a mention.
type MentionAction string

// Mention actions.
const (
	ActionRead    MentionAction = "read"
	ActionUnread  MentionAction = "unread"
	ActionArchive MentionAction = "archive"
	ActionDismiss MentionAction = "dismiss"
	ActionStar    MentionAction = "star"
)

// MentionActions lists the valid actions.
var MentionActions = []MentionAction{ActionRead, ActionUnread, ActionArchive, ActionDismiss, ActionStar}

// Valid reports whether a is a known action.
func (a MentionAction) Valid() bool {
	for _, known := range MentionActions {
		if a == known {
			return true
		}
	}
	return false
}

// ErrNoFilter is returned by Filter when no evaluator is configured.
var ErrNoFilter = errors.New("mention filtering is not available")

// MentionQuery selects mentions.
type MentionQuery struct {
	Page    int    `json:"page" validate:"gte=0"`
	Limit   int    `json:"limit" validate:"gte=0,lte=100"`
	Status  string `json:"status" validate:"omitempty,oneof=unread read archived dismissed starred"`
	Keyword string `json:"keyword" validate:"max=100"`
}

func (q MentionQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Keyword != "" {
		v.Set("keyword", q.Keyword)
	}
	return v
}

// MentionService lists and triages mentions. Listings are cached until the
// server-provided exp instant.
type MentionService struct {
	gw      Gateway
	filters filter.Evaluator
	logger  *slog.Logger
}

// NewMentionService creates a new MentionService. filters may be nil, in which
// case Filter returns ErrNoFilter.
func NewMentionService(gw Gateway, filters filter.Evaluator, logger *slog.Logger) *MentionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MentionService{gw: gw, filters: filters, logger: logger}
}

// List returns one page of mentions for a project.
func (s *MentionService) List(ctx context.Context, projectID string, q MentionQuery) (*MentionPage, error) {
	if err := checkID("projectId", projectID); err != nil {
		return nil, err
	}
	if err := checkInput(q); err != nil {
		return nil, err
	}
	ep := gateway.MentionsList
	resp, err := s.gw.Do(ctx, gateway.Call{Endpoint: ep, Params: projectParams(projectID), Query: q.values()})
	if err != nil {
		return nil, err
	}
	var items []Mention
	if err := decode(ctx, s.logger, ep, resp, &items); err != nil {
		return nil, err
	}
	return &MentionPage{
		Items:      items,
		Pagination: resp.Pagination,
		Exp:        resp.Exp,
		Cached:     resp.Cached,
	}, nil
}

type actionInput struct {
	Action MentionAction `json:"action"`
}

// Act applies a triage action. Cached mention listings of the project are
// dropped before Act returns, so a following List sees the change.
func (s *MentionService) Act(ctx context.Context, projectID, mentionID string, action MentionAction) error {
	if err := checkID("projectId", projectID); err != nil {
		return err
	}
	if err := checkID("mentionId", mentionID); err != nil {
		return err
	}
	if !action.Valid() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidInput, action)
	}
	params := projectParams(projectID)
	params[gateway.ParamMentionID] = mentionID
	_, err := s.gw.Do(ctx, gateway.Call{
		Endpoint: gateway.MentionAction,
		Params:   params,
		Body:     actionInput{Action: action},
	})
	return err
}

// Filter keeps the mentions matching a filter expression.
func (s *MentionService) Filter(ctx context.Context, items []Mention, expr string) ([]Mention, error) {
	if s.filters == nil {
		return nil, ErrNoFilter
	}
	p, err := s.filters.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return filter.Apply(ctx, p, items, Mention.Subject)
}

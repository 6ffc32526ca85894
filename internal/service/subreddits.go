package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mentiondesk/mentiondesk/internal/adapter/outbound/gateway"
)

// SubredditService manages the communities a project watches.
type SubredditService struct {
	gw     Gateway
	logger *slog.Logger
}

// NewSubredditService creates a new SubredditService.
func NewSubredditService(gw Gateway, logger *slog.Logger) *SubredditService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubredditService{gw: gw, logger: logger}
}

type subredditInput struct {
	Name string `json:"name" validate:"required,subreddit_name"`
}

// NormalizeSubreddit strips whitespace and an "r/" or "/r/" prefix.
func NormalizeSubreddit(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "/")
	if len(name) > 2 && strings.EqualFold(name[:2], "r/") {
		name = name[2:]
	}
	return name
}

// List returns the subreddits of a project.
func (s *SubredditService) List(ctx context.Context, projectID string) ([]Subreddit, error) {
	if err := checkID("projectId", projectID); err != nil {
		return nil, err
	}
	ep := gateway.SubredditsList
	resp, err := s.gw.Do(ctx, gateway.Call{Endpoint: ep, Params: projectParams(projectID)})
	if err != nil {
		return nil, err
	}
	var items []Subreddit
	if err := decode(ctx, s.logger, ep, resp, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Add starts watching a subreddit.
func (s *SubredditService) Add(ctx context.Context, projectID, name string) (*Subreddit, error) {
	if err := checkID("projectId", projectID); err != nil {
		return nil, err
	}
	in := subredditInput{Name: NormalizeSubreddit(name)}
	if err := checkInput(in); err != nil {
		return nil, err
	}
	ep := gateway.SubredditAdd
	resp, err := s.gw.Do(ctx, gateway.Call{Endpoint: ep, Params: projectParams(projectID), Body: in})
	if err != nil {
		return nil, err
	}
	var sub Subreddit
	if err := decode(ctx, s.logger, ep, resp, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// Remove stops watching a subreddit.
func (s *SubredditService) Remove(ctx context.Context, projectID, subredditID string) error {
	if err := checkID("projectId", projectID); err != nil {
		return err
	}
	if err := checkID("subredditId", subredditID); err != nil {
		return err
	}
	params := projectParams(projectID)
	params[gateway.ParamSubredditID] = subredditID
	_, err := s.gw.Do(ctx, gateway.Call{Endpoint: gateway.SubredditRemove, Params: params})
	return err
}

package service

import (
	"time"

	"github.com/mentiondesk/mentiondesk/internal/adapter/outbound/gateway"
	"github.com/mentiondesk/mentiondesk/internal/domain/filter"
)

// Project is a tracked brand or product.
type Project struct {
	ID          string    `json:"id" yaml:"id" validate:"required"`
	Name        string    `json:"name" yaml:"name" validate:"required"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// ProjectPage is one page of projects.
type ProjectPage struct {
	Items      []Project           `json:"items" yaml:"items"`
	Pagination *gateway.Pagination `json:"pagination,omitempty" yaml:"pagination,omitempty"`
}

// Keyword is a search term tracked by a project.
type Keyword struct {
	ID        string `json:"id" yaml:"id" validate:"required"`
	ProjectID string `json:"projectId" yaml:"projectId"`
	Term      string `json:"term" yaml:"term" validate:"required"`
}

// Subreddit is a community watched by a project.
type Subreddit struct {
	ID        string `json:"id" yaml:"id" validate:"required"`
	ProjectID string `json:"projectId" yaml:"projectId"`
	Name      string `json:"name" yaml:"name" validate:"required"`
}

// ProjectSettings holds per-project notification preferences.
type ProjectSettings struct {
	ProjectID       string `json:"projectId" yaml:"projectId"`
	NotifyEmail     bool   `json:"notifyEmail" yaml:"notifyEmail"`
	DigestFrequency string `json:"digestFrequency" yaml:"digestFrequency" validate:"omitempty,oneof=off daily weekly"`
	MinScore        int    `json:"minScore" yaml:"minScore" validate:"gte=0"`
}

// Mention is a post or comment matching one of a project's keywords.
type Mention struct {
	ID        string    `json:"id" yaml:"id" validate:"required"`
	ProjectID string    `json:"projectId" yaml:"projectId"`
	Source    string    `json:"source" yaml:"source"`
	Subreddit string    `json:"subreddit" yaml:"subreddit"`
	Title     string    `json:"title" yaml:"title"`
	Body      string    `json:"body,omitempty" yaml:"body,omitempty"`
	URL       string    `json:"url" yaml:"url" validate:"omitempty,url"`
	Author    string    `json:"author" yaml:"author"`
	Score     int64     `json:"score" yaml:"score"`
	Status    string    `json:"status" yaml:"status"`
	Keyword   string    `json:"keyword" yaml:"keyword"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

// Subject returns the filterable view of the mention.
func (m Mention) Subject() filter.Subject {
	return filter.Subject{
		ID:        m.ID,
		ProjectID: m.ProjectID,
		Source:    m.Source,
		Subreddit: m.Subreddit,
		Title:     m.Title,
		Body:      m.Body,
		URL:       m.URL,
		Author:    m.Author,
		Score:     m.Score,
		Status:    m.Status,
		Keyword:   m.Keyword,
		CreatedAt: m.CreatedAt,
	}
}

// MentionPage is one page of mentions together with the server freshness deadline.
type MentionPage struct {
	Items      []Mention           `json:"items" yaml:"items"`
	Pagination *gateway.Pagination `json:"pagination,omitempty" yaml:"pagination,omitempty"`
	Exp        *time.Time          `json:"exp,omitempty" yaml:"exp,omitempty"`
	Cached     bool                `json:"-" yaml:"-"`
}

// ListOptions selects a page of a listing. Zero values use the server defaults.
type ListOptions struct {
	Page  int `json:"page" validate:"gte=0"`
	Limit int `json:"limit" validate:"gte=0,lte=100"`
}

package gateway

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/mentiondesk/mentiondesk/internal/domain/cache"
)

// Path and key template parameters.
const (
	ParamProjectID   = "projectID"
	ParamMentionID   = "mentionID"
	ParamKeywordID   = "keywordID"
	ParamSubredditID = "subredditID"
	ParamProvider    = "provider"
)

// Invalidation names the entries a write endpoint makes stale: every key in Pool
// (or in all pools for cache.AllPools) containing the expanded Pattern.
type Invalidation struct {
	Pool    cache.PoolName
	Pattern string
}

// Endpoint describes one backend route and its caching behavior.
type Endpoint struct {
	Name   string
	Method string
	// Path is a template such as "/projects/{projectID}/keywords".
	Path string
	// Public endpoints attach a token when one is usable but never fail on the
	// token source.
	Public bool
	// Pool and Scope make a GET endpoint cacheable. Scope is a key template such
	// as "proj:{projectID}"; query parameters are appended to it.
	Pool  cache.PoolName
	Scope string
	// ServerExpiry caches responses until their "exp" instant instead of the
	// pool TTL. Responses without a usable exp are not cached.
	ServerExpiry bool
	// Invalidates lists the cache entries a successful call makes stale.
	Invalidates []Invalidation
}

func (e *Endpoint) cacheable() bool {
	return e.Method == http.MethodGet && e.Pool != ""
}

var projectScope = cache.ProjectScope("{" + ParamProjectID + "}")

// Auth endpoints.
var (
	AuthLogin = &Endpoint{
		Name: "auth.login", Method: http.MethodPost, Path: "/auth/login", Public: true,
	}
	AuthRegister = &Endpoint{
		Name: "auth.register", Method: http.MethodPost, Path: "/auth/register", Public: true,
	}
	AuthOAuthCallback = &Endpoint{
		Name: "auth.oauth_callback", Method: http.MethodPost, Path: "/auth/oauth/{provider}/callback", Public: true,
	}
	AuthVerifyEmail = &Endpoint{
		Name: "auth.verify_email", Method: http.MethodPost, Path: "/auth/verify-email", Public: true,
	}
	AuthResetPassword = &Endpoint{
		Name: "auth.reset_password", Method: http.MethodPost, Path: "/auth/reset-password", Public: true,
	}
	AuthForgotPassword = &Endpoint{
		Name: "auth.forgot_password", Method: http.MethodPost, Path: "/auth/forgot-password", Public: true,
	}
	AuthMe = &Endpoint{
		Name: "auth.me", Method: http.MethodGet, Path: "/auth/me",
	}
	AuthLogout = &Endpoint{
		Name: "auth.logout", Method: http.MethodPost, Path: "/auth/logout",
	}
)

// Project endpoints.
var (
	ProjectsList = &Endpoint{
		Name: "projects.list", Method: http.MethodGet, Path: "/projects",
		Pool: cache.PoolProjects, Scope: "list",
	}
	ProjectGet = &Endpoint{
		Name: "projects.get", Method: http.MethodGet, Path: "/projects/{projectID}",
		Pool: cache.PoolProjects, Scope: projectScope,
	}
	ProjectCreate = &Endpoint{
		Name: "projects.create", Method: http.MethodPost, Path: "/projects",
		Invalidates: []Invalidation{
			{Pool: cache.PoolProjects, Pattern: "list"},
		},
	}
	ProjectUpdate = &Endpoint{
		Name: "projects.update", Method: http.MethodPut, Path: "/projects/{projectID}",
		Invalidates: []Invalidation{
			{Pool: cache.PoolProjects, Pattern: "list"},
			{Pool: cache.PoolProjects, Pattern: projectScope},
		},
	}
	ProjectDelete = &Endpoint{
		Name: "projects.delete", Method: http.MethodDelete, Path: "/projects/{projectID}",
		Invalidates: []Invalidation{
			{Pool: cache.PoolProjects, Pattern: "list"},
			{Pool: cache.AllPools, Pattern: projectScope},
		},
	}
)

// Keyword endpoints.
var (
	KeywordsList = &Endpoint{
		Name: "keywords.list", Method: http.MethodGet, Path: "/projects/{projectID}/keywords",
		Pool: cache.PoolKeywords, Scope: projectScope,
	}
	KeywordAdd = &Endpoint{
		Name: "keywords.add", Method: http.MethodPost, Path: "/projects/{projectID}/keywords",
		Invalidates: []Invalidation{
			{Pool: cache.PoolKeywords, Pattern: projectScope},
			{Pool: cache.PoolMentions, Pattern: projectScope},
		},
	}
	KeywordRemove = &Endpoint{
		Name: "keywords.remove", Method: http.MethodDelete, Path: "/projects/{projectID}/keywords/{keywordID}",
		Invalidates: []Invalidation{
			{Pool: cache.PoolKeywords, Pattern: projectScope},
			{Pool: cache.PoolMentions, Pattern: projectScope},
		},
	}
)

// Subreddit endpoints.
var (
	SubredditsList = &Endpoint{
		Name: "subreddits.list", Method: http.MethodGet, Path: "/projects/{projectID}/subreddits",
		Pool: cache.PoolSubreddits, Scope: projectScope,
	}
	SubredditAdd = &Endpoint{
		Name: "subreddits.add", Method: http.MethodPost, Path: "/projects/{projectID}/subreddits",
		Invalidates: []Invalidation{
			{Pool: cache.PoolSubreddits, Pattern: projectScope},
			{Pool: cache.PoolMentions, Pattern: projectScope},
		},
	}
	SubredditRemove = &Endpoint{
		Name: "subreddits.remove", Method: http.MethodDelete, Path: "/projects/{projectID}/subreddits/{subredditID}",
		Invalidates: []Invalidation{
			{Pool: cache.PoolSubreddits, Pattern: projectScope},
			{Pool: cache.PoolMentions, Pattern: projectScope},
		},
	}
)

// Settings endpoints.
var (
	SettingsGet = &Endpoint{
		Name: "settings.get", Method: http.MethodGet, Path: "/projects/{projectID}/settings",
		Pool: cache.PoolProjectSettings, Scope: projectScope,
	}
	SettingsUpdate = &Endpoint{
		Name: "settings.update", Method: http.MethodPut, Path: "/projects/{projectID}/settings",
		Invalidates: []Invalidation{
			{Pool: cache.PoolProjectSettings, Pattern: projectScope},
		},
	}
)

// Mention endpoints.
var (
	MentionsList = &Endpoint{
		Name: "mentions.list", Method: http.MethodGet, Path: "/projects/{projectID}/mentions",
		Pool: cache.PoolMentions, Scope: projectScope, ServerExpiry: true,
	}
	MentionAction = &Endpoint{
		Name: "mentions.action", Method: http.MethodPost, Path: "/projects/{projectID}/mentions/{mentionID}/actions",
		Invalidates: []Invalidation{
			{Pool: cache.PoolMentions, Pattern: projectScope},
		},
	}
)

// expand substitutes {name} placeholders in tmpl with params, passing each value
// through escape. A placeholder without a non-empty value is an error.
func expand(tmpl string, params map[string]string, escape func(string) string) (string, error) {
	if !strings.Contains(tmpl, "{") {
		return tmpl, nil
	}
	var b strings.Builder
	rest := tmpl
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return "", fmt.Errorf("unterminated placeholder in %q", tmpl)
		}
		name := rest[open+1 : open+end]
		value := params[name]
		if value == "" {
			return "", fmt.Errorf("missing parameter %q for %q", name, tmpl)
		}
		b.WriteString(rest[:open])
		if escape != nil {
			value = escape(value)
		}
		b.WriteString(value)
		rest = rest[open+end+1:]
	}
}

package cel

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mentiondesk/mentiondesk/internal/domain/filter"
)

var fixedNow = time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

func newTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	eval, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator() error: %v", err)
	}
	eval.now = func() time.Time { return fixedNow }
	return eval
}

func sampleMention() filter.Subject {
	return filter.Subject{
		ID:        "m-1",
		ProjectID: "7",
		Source:    "reddit",
		Subreddit: "golang",
		Title:     "Is there an outage on the API?",
		Body:      "Requests keep timing out since this morning.",
		URL:       "https://reddit.com/r/golang/comments/abc",
		Author:    "gopher42",
		Score:     37,
		Status:    "unread",
		Keyword:   "outage",
		CreatedAt: fixedNow.Add(-3 * time.Hour),
	}
}

func TestNewEvaluator(t *testing.T) {
	eval, err := NewEvaluator()
	if err != nil {
		t.Fatalf("NewEvaluator() error: %v", err)
	}
	if eval == nil {
		t.Fatal("NewEvaluator() returned nil")
	}
}

func TestMatch(t *testing.T) {
	eval := newTestEvaluator(t)

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"score threshold met", `mention.score >= 10`, true},
		{"score threshold missed", `mention.score > 100`, false},
		{"subreddit equality", `mention.subreddit == "golang"`, true},
		{"status and keyword", `mention.status == "unread" && mention.keyword == "outage"`, true},
		{"glob on url", `glob("https://reddit.com/r/golang/*", mention.url)`, true},
		{"glob no match", `glob("r/rust*", mention.subreddit)`, false},
		{"contains_any case-insensitive", `contains_any(mention.title, ["OUTAGE", "down"])`, true},
		{"contains_any no match", `contains_any(mention.body, ["refund"])`, false},
		{"string extension", `mention.author.startsWith("gopher")`, true},
		{"recent mention", `mention.created_at > now - duration("24h")`, true},
		{"old mention", `mention.created_at < now - duration("24h")`, false},
		{"comprehension within budget", `["golang", "programming"].exists(s, s == mention.subreddit)`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := eval.Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile(%q) error: %v", tt.expr, err)
			}
			got, err := p.Match(context.Background(), sampleMention())
			if err != nil {
				t.Fatalf("Match() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestMatch_NonBooleanResult(t *testing.T) {
	eval := newTestEvaluator(t)

	p, err := eval.Compile(`mention.score`)
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	_, err = p.Match(context.Background(), sampleMention())
	if err == nil {
		t.Fatal("Match() expected error for non-boolean result")
	}
	if !strings.Contains(err.Error(), "did not return a boolean") {
		t.Errorf("error %q should mention boolean", err.Error())
	}
}

func TestMatch_UnknownField(t *testing.T) {
	eval := newTestEvaluator(t)

	p, err := eval.Compile(`mention.upvotes > 3`)
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	if _, err := p.Match(context.Background(), sampleMention()); err == nil {
		t.Error("Match() expected error for unknown field")
	}
}

func TestMatch_CanceledContext(t *testing.T) {
	eval := newTestEvaluator(t)

	p, err := eval.Compile(`[1, 2, 3].all(x, [1, 2, 3].all(y, x + y > 0))`)
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// A canceled context may or may not be observed before a tiny comprehension
	// finishes; either way the call must return without hanging.
	_, _ = p.Match(ctx, sampleMention())
}

func TestValidate(t *testing.T) {
	eval := newTestEvaluator(t)

	tests := []struct {
		name    string
		expr    string
		wantErr string
	}{
		{name: "valid", expr: `mention.score > 5`},
		{name: "empty", expr: ``, wantErr: "empty"},
		{name: "syntax error", expr: `mention.score >`, wantErr: "invalid filter expression"},
		{name: "unknown variable", expr: `post.score > 5`, wantErr: "invalid filter expression"},
		{name: "too long", expr: strings.Repeat("a", maxExpressionLength+1), wantErr: "too long"},
		{name: "too deep", expr: strings.Repeat("(", 51) + "true" + strings.Repeat(")", 51), wantErr: "nesting too deep"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := eval.Validate(tt.expr)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidate_NestingAtLimit(t *testing.T) {
	eval := newTestEvaluator(t)
	expr := strings.Repeat("(", 50) + "true" + strings.Repeat(")", 50)
	if err := eval.Validate(expr); err != nil {
		t.Errorf("expression at nesting limit (50) should be valid, got: %v", err)
	}
}

func TestFilterApply(t *testing.T) {
	eval := newTestEvaluator(t)
	p, err := eval.Compile(`mention.score >= 10 && mention.status != "archived"`)
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}

	low := sampleMention()
	low.ID, low.Score = "m-2", 3
	archived := sampleMention()
	archived.ID, archived.Status = "m-3", "archived"
	items := []filter.Subject{sampleMention(), low, archived}

	got, err := filter.Apply(context.Background(), p, items, func(s filter.Subject) filter.Subject { return s })
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "m-1" {
		t.Errorf("Apply() = %+v, want only m-1", got)
	}
}

func TestValidateNesting(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{"no_nesting", "true", false},
		{"single_level", "(true)", false},
		{"50_levels", strings.Repeat("(", 50) + "true" + strings.Repeat(")", 50), false},
		{"51_levels", strings.Repeat("(", 51) + "true" + strings.Repeat(")", 51), true},
		{"interleaved_types", "([{true}])", false},
		{"empty_string", "", false},
		{"only_openers", strings.Repeat("(", 60), true},
		{"deep_square_brackets", strings.Repeat("[", 51) + strings.Repeat("]", 51), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateNesting(tt.expr)
			if tt.wantErr && err == nil {
				t.Errorf("validateNesting(%q) expected error, got nil", tt.name)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("validateNesting(%q) unexpected error: %v", tt.name, err)
			}
		})
	}
}

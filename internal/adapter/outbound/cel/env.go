package cel

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
	"github.com/google/cel-go/ext"

	"github.com/mentiondesk/mentiondesk/internal/domain/filter"
)

// NewMentionEnvironment creates the CEL environment for mention filters. It declares:
//   - mention: map with id, project_id, source, subreddit, title, body, url, author,
//     score, status, keyword, created_at
//   - now: the evaluation time
//   - glob(pattern, text) and contains_any(text, words)
func NewMentionEnvironment() (*cel.Env, error) {
	return cel.NewEnv(
		ext.Strings(),
		ext.Sets(),

		cel.Variable("mention", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("now", cel.TimestampType),

		// glob: shell pattern match, e.g. glob("r/golang*", mention.subreddit)
		cel.Function("glob",
			cel.Overload("glob_string_string",
				[]*cel.Type{cel.StringType, cel.StringType},
				cel.BoolType,
				cel.BinaryBinding(func(pattern, name ref.Val) ref.Val {
					p := pattern.Value().(string)
					n := name.Value().(string)
					matched, _ := filepath.Match(p, n)
					return types.Bool(matched)
				}),
			),
		),

		// contains_any: case-insensitive substring match against any word.
		// Usage: contains_any(mention.title, ["outage", "down"])
		cel.Function("contains_any",
			cel.Overload("contains_any_string_list",
				[]*cel.Type{cel.StringType, cel.ListType(cel.StringType)},
				cel.BoolType,
				cel.BinaryBinding(func(textVal, wordsVal ref.Val) ref.Val {
					text := strings.ToLower(textVal.Value().(string))
					words, ok := wordsVal.(traits.Lister)
					if !ok {
						return types.False
					}
					it := words.Iterator()
					for it.HasNext() == types.True {
						w, ok := it.Next().Value().(string)
						if ok && w != "" && strings.Contains(text, strings.ToLower(w)) {
							return types.True
						}
					}
					return types.False
				}),
			),
		),
	)
}

// BuildMentionActivation creates the CEL activation for one mention.
func BuildMentionActivation(s filter.Subject, now time.Time) map[string]any {
	return map[string]any{
		"mention": map[string]any{
			"id":         s.ID,
			"project_id": s.ProjectID,
			"source":     s.Source,
			"subreddit":  s.Subreddit,
			"title":      s.Title,
			"body":       s.Body,
			"url":        s.URL,
			"author":     s.Author,
			"score":      s.Score,
			"status":     s.Status,
			"keyword":    s.Keyword,
			"created_at": s.CreatedAt,
		},
		"now": now,
	}
}

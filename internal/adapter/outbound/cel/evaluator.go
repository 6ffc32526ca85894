// Package cel provides a CEL-based mention filter.
package cel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/mentiondesk/mentiondesk/internal/domain/filter"
)

// maxExpressionLength is the maximum allowed length for filter expressions.
const maxExpressionLength = 1024

// maxCostBudget is the CEL runtime cost limit per evaluation.
const maxCostBudget = 100_000

// maxNestingDepth is the maximum allowed parenthesis/bracket nesting depth.
const maxNestingDepth = 50

// evalTimeout is the maximum time allowed for a single CEL evaluation.
const evalTimeout = 5 * time.Second

// interruptCheckFreq is how often (in comprehension iterations) context cancellation is checked.
const interruptCheckFreq = 100

// Evaluator compiles and evaluates CEL expressions over mentions.
type Evaluator struct {
	env *cel.Env
	now func() time.Time
}

// NewEvaluator creates a new CEL evaluator with the mention environment.
func NewEvaluator() (*Evaluator, error) {
	env, err := NewMentionEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to create mention environment: %w", err)
	}
	return &Evaluator{env: env, now: time.Now}, nil
}

// program parses and type-checks a CEL expression, returning a compiled program.
func (e *Evaluator) program(expression string) (cel.Program, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation failed: %w", issues.Err())
	}

	prg, err := e.env.Program(ast,
		cel.EvalOptions(cel.OptOptimize),
		cel.CostLimit(maxCostBudget),
		cel.InterruptCheckFrequency(interruptCheckFreq),
	)
	if err != nil {
		return nil, fmt.Errorf("program creation failed: %w", err)
	}

	return prg, nil
}

// validateNesting checks that the expression does not exceed the maximum allowed
// nesting depth for parentheses, brackets, and braces.
func validateNesting(expr string) error {
	var depth, maxDepth int
	for _, ch := range expr {
		switch ch {
		case '(', '[', '{':
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case ')', ']', '}':
			depth--
		}
	}
	if maxDepth > maxNestingDepth {
		return fmt.Errorf("expression nesting too deep: %d levels (max %d)", maxDepth, maxNestingDepth)
	}
	return nil
}

// Validate checks that a filter expression is syntactically valid and within the
// length and nesting limits.
func (e *Evaluator) Validate(expr string) error {
	_, err := e.compileChecked(expr)
	return err
}

// Compile validates expr and returns a reusable predicate.
func (e *Evaluator) Compile(expr string) (filter.Predicate, error) {
	prg, err := e.compileChecked(expr)
	if err != nil {
		return nil, err
	}
	return &predicate{prg: prg, now: e.now}, nil
}

func (e *Evaluator) compileChecked(expr string) (cel.Program, error) {
	if len(expr) > maxExpressionLength {
		return nil, fmt.Errorf("expression too long: %d characters (max %d)", len(expr), maxExpressionLength)
	}

	if expr == "" {
		return nil, errors.New("expression is empty")
	}

	if err := validateNesting(expr); err != nil {
		return nil, err
	}

	prg, err := e.program(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	return prg, nil
}

type predicate struct {
	prg cel.Program
	now func() time.Time
}

// Match runs the program against one mention with a timeout so that a runaway
// expression cannot hang the caller.
func (p *predicate) Match(ctx context.Context, s filter.Subject) (bool, error) {
	activation := BuildMentionActivation(s, p.now())

	ctx, cancel := context.WithTimeout(ctx, evalTimeout)
	defer cancel()

	result, _, err := p.prg.ContextEval(ctx, activation)
	if err != nil {
		return false, fmt.Errorf("evaluation failed: %w", err)
	}

	boolResult, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression did not return a boolean, got %T", result.Value())
	}

	return boolResult, nil
}

var _ filter.Evaluator = (*Evaluator)(nil)

package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/whiskeyjimbo/portprobe/internal/checkers"
)

var (
	ErrEmptyCondition = errors.New("rule condition cannot be empty")
	ErrInvalidSyntax  = errors.New("invalid rule syntax")
)

// Expectation is a compiled boolean condition over a probe result.
type Expectation struct {
	Condition string
	program   *vm.Program
}

func newEnv(result checkers.Result) map[string]interface{} {
	return map[string]interface{}{
		"is_open": result.IsOpen,
		"result":  result.Result,
		"address": result.Address,
		"port":    result.Port,
		"elapsed": result.Elapsed.Seconds(),
	}
}

// Compile validates condition against the result environment.
func Compile(condition string) (*Expectation, error) {
	if strings.TrimSpace(condition) == "" {
		return nil, ErrEmptyCondition
	}

	normalized := normalizeCondition(condition)
	program, err := expr.Compile(normalized, expr.Env(newEnv(checkers.Result{})), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSyntax, err)
	}

	return &Expectation{Condition: condition, program: program}, nil
}

func (e *Expectation) Evaluate(result checkers.Result) (bool, error) {
	out, err := expr.Run(e.program, newEnv(result))
	if err != nil {
		return false, fmt.Errorf("rule evaluation failed: %w", err)
	}

	satisfied, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("rule must evaluate to boolean, got %T", out)
	}
	return satisfied, nil
}

// Evaluate compiles and runs condition once.
func Evaluate(condition string, result checkers.Result) (bool, error) {
	e, err := Compile(condition)
	if err != nil {
		return false, err
	}
	return e.Evaluate(result)
}

var durationLiteral = regexp.MustCompile(`\b(\d+(\.\d+)?(ns|us|µs|ms|s|m|h))+\b`)

// normalizeCondition rewrites duration literals such as 250ms or 1m30s into seconds.
func normalizeCondition(condition string) string {
	return durationLiteral.ReplaceAllStringFunc(condition, func(literal string) string {
		dur, err := time.ParseDuration(literal)
		if err != nil {
			return literal
		}
		return strconv.FormatFloat(dur.Seconds(), 'f', -1, 64)
	})
}

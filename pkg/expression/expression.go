// Package expression evaluates step variable expressions. Only field paths
// (pipeline.name, pipeline_descriptor["main_repo"].branch) and literals are
// accepted; operators, function calls, closures and builtins are rejected
// before anything is compiled.
package expression

import (
	"errors"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	logger "github.com/sirupsen/logrus"
)

var (
	ErrForbiddenExpression = errors.New("expression is not a field path or literal")
	ErrUnresolved          = errors.New("expression did not resolve to a value")
)

// Context is the read-only namespace expressions are evaluated against.
type Context map[string]any

type restrictionVisitor struct {
	forbidden []string
}

func (v *restrictionVisitor) Visit(node *ast.Node) {
	switch (*node).(type) {
	case *ast.IdentifierNode, *ast.MemberNode,
		*ast.StringNode, *ast.IntegerNode, *ast.FloatNode, *ast.BoolNode, *ast.NilNode:
	default:
		v.forbidden = append(v.forbidden, fmt.Sprintf("%T", *node))
	}
}

// Check parses the expression and verifies it only uses the permitted grammar.
func Check(code string) error {
	tree, err := parser.Parse(code)
	if err != nil {
		return fmt.Errorf("could not parse expression %q: %w", code, err)
	}
	v := &restrictionVisitor{}
	ast.Walk(&tree.Node, v)
	if len(v.forbidden) > 0 {
		return fmt.Errorf("%w: %q uses %s", ErrForbiddenExpression, code, strings.Join(v.forbidden, ","))
	}
	return nil
}

// Evaluate resolves the expression against ctx and prints the result.
func Evaluate(code string, ctx Context) (string, error) {
	if err := Check(code); err != nil {
		return "", err
	}
	env := map[string]any(ctx)
	program, err := expr.Compile(code, expr.Env(env))
	if err != nil {
		return "", fmt.Errorf("could not compile expression %q: %w", code, err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return "", fmt.Errorf("could not evaluate expression %q: %w", code, err)
	}
	if out == nil {
		logger.WithField("func", "Evaluate").Debugf("available paths: %s", strings.Join(SortedPaths(ctx), ","))
		return "", fmt.Errorf("%w: %q", ErrUnresolved, code)
	}
	return fmt.Sprintf("%v", out), nil
}

package tree

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Constraint validates a setting value. It returns nil if v is acceptable.
type Constraint[T any] func(v T) error

// OneOf accepts only the listed values.
func OneOf[T comparable](allowed ...T) Constraint[T] {
	return func(v T) error {
		if slices.Contains(allowed, v) {
			return nil
		}
		return &ConstraintError{Value: v, Reason: fmt.Sprintf("must be one of %v", allowed)}
	}
}

// Range accepts values between lo and hi, inclusive.
func Range[T cmp.Ordered](lo, hi T) Constraint[T] {
	return func(v T) error {
		if v < lo || v > hi {
			return &ConstraintError{Value: v, Reason: fmt.Sprintf("must be between %v and %v", lo, hi)}
		}
		return nil
	}
}

// Expr compiles a boolean expr-lang expression into a constraint.
// The value being checked is bound to the variable "value".
//
// Example:
//
//	c, err := tree.Expr[string](`len(value) > 0 && value matches "^[a-z-]+$"`)
func Expr[T any](expression string) (Constraint[T], error) {
	var zero T
	program, err := expr.Compile(expression,
		expr.Env(map[string]any{"value": zero}),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile constraint %q: %w", expression, err)
	}
	return exprConstraint[T](program, expression), nil
}

// MustExpr is like Expr but panics if the expression does not compile.
func MustExpr[T any](expression string) Constraint[T] {
	c, err := Expr[T](expression)
	if err != nil {
		panic("tree: " + err.Error())
	}
	return c
}

func exprConstraint[T any](program *vm.Program, expression string) Constraint[T] {
	return func(v T) error {
		out, err := expr.Run(program, map[string]any{"value": v})
		if err != nil {
			return &ConstraintError{Value: v, Reason: fmt.Sprintf("%s: %v", expression, err)}
		}
		if ok, _ := out.(bool); !ok {
			return &ConstraintError{Value: v, Reason: fmt.Sprintf("does not satisfy %s", expression)}
		}
		return nil
	}
}

package condition

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/joeycumines/go-htn/internal/htn"
)

// Env exposes the facts of ctx to expr-lang, keyed by fact name, each value
// converted with htn.Variant.Interface. Absent facts evaluate to nil.
func Env(ctx *htn.Context) map[string]any {
	env := make(map[string]any, ctx.Len())
	for key, value := range ctx.Snapshot() {
		env[key] = value.Interface()
	}
	return env
}

// Expr is an htn.Condition written as an expr-lang boolean expression over the
// fact store, e.g. `enemy != nil && health > 10`.
//
// The program is compiled on first use and shared through the package cache.
// Compilation and evaluation errors make the condition false and are kept for
// LastError.
type Expr struct {
	expression string

	mu      sync.RWMutex
	program *vm.Program
	lastErr error
}

var _ htn.Condition = (*Expr)(nil)

// NewExpr returns a condition for expression. Panics if expression is empty.
func NewExpr(expression string) *Expr {
	if expression == "" {
		panic("condition.NewExpr: expression cannot be empty")
	}
	return &Expr{expression: expression}
}

// MustCompileExpr is like NewExpr but compiles eagerly, panicking on a syntax
// error.
func MustCompileExpr(expression string) *Expr {
	c := NewExpr(expression)
	if err := c.Compile(); err != nil {
		panic(err)
	}
	return c
}

// Expression returns the source text.
func (c *Expr) Expression() string { return c.expression }

// String implements fmt.Stringer.
func (c *Expr) String() string { return c.expression }

// Compile compiles the expression now rather than on first use.
func (c *Expr) Compile() error {
	_, err := c.compile()
	return err
}

// IsValid implements htn.Condition.
func (c *Expr) IsValid(ctx *htn.Context) bool {
	if c == nil {
		return false
	}
	program, err := c.compile()
	if err != nil {
		c.fail(fmt.Errorf("expression compilation failed: %w", err))
		return false
	}
	result, err := expr.Run(program, Env(ctx))
	if err != nil {
		c.fail(fmt.Errorf("expression evaluation failed: %w", err))
		return false
	}
	b, ok := result.(bool)
	if !ok {
		c.fail(fmt.Errorf("expression returned non-boolean result: %T", result))
		return false
	}
	c.fail(nil)
	return b
}

// LastError returns the error from the most recent IsValid, if any.
func (c *Expr) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

func (c *Expr) fail(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
	if err != nil {
		slog.Error("condition: expr condition error",
			"expression", c.expression,
			"error", err)
	}
}

func (c *Expr) compile() (*vm.Program, error) {
	c.mu.RLock()
	program := c.program
	c.mu.RUnlock()
	if program != nil {
		return program, nil
	}
	program, err := compile(c.expression, true)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if c.program == nil {
		c.program = program
	}
	c.mu.Unlock()
	return program, nil
}

// ExprEffect is an htn.Effect that evaluates an expr-lang expression over the
// fact store and stores the result under a key, e.g. `health - 1`. The result
// must convert with htn.VariantOf; a nil result removes the fact.
type ExprEffect struct {
	key        string
	expression string

	mu      sync.RWMutex
	program *vm.Program
	lastErr error
}

var _ htn.Effect = (*ExprEffect)(nil)

// NewExprEffect returns an effect writing expression's value to key. Panics if
// expression is empty.
func NewExprEffect(key, expression string) *ExprEffect {
	if expression == "" {
		panic("condition.NewExprEffect: expression cannot be empty")
	}
	return &ExprEffect{key: key, expression: expression}
}

func (e *ExprEffect) Key() string { return e.key }

// String implements fmt.Stringer.
func (e *ExprEffect) String() string { return e.key + " = " + e.expression }

// Apply implements htn.Effect. On error the fact store is left unchanged.
func (e *ExprEffect) Apply(ctx *htn.Context) {
	program, err := e.compile()
	if err != nil {
		e.fail(fmt.Errorf("expression compilation failed: %w", err))
		return
	}
	result, err := expr.Run(program, Env(ctx))
	if err != nil {
		e.fail(fmt.Errorf("expression evaluation failed: %w", err))
		return
	}
	if result == nil {
		ctx.Remove(e.key)
		e.fail(nil)
		return
	}
	value, err := htn.VariantOf(result)
	if err != nil {
		e.fail(err)
		return
	}
	ctx.Set(e.key, value)
	e.fail(nil)
}

// LastError returns the error from the most recent Apply, if any.
func (e *ExprEffect) LastError() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastErr
}

func (e *ExprEffect) fail(err error) {
	e.mu.Lock()
	e.lastErr = err
	e.mu.Unlock()
	if err != nil {
		slog.Error("condition: expr effect error",
			"key", e.key,
			"expression", e.expression,
			"error", err)
	}
}

func (e *ExprEffect) compile() (*vm.Program, error) {
	e.mu.RLock()
	program := e.program
	e.mu.RUnlock()
	if program != nil {
		return program, nil
	}
	program, err := compile(e.expression, false)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	if e.program == nil {
		e.program = program
	}
	e.mu.Unlock()
	return program, nil
}

// compile consults the shared cache before compiling.
func compile(expression string, asBool bool) (*vm.Program, error) {
	key := "any:" + expression
	opts := []expr.Option{expr.AllowUndefinedVariables()}
	if asBool {
		key = "bool:" + expression
		opts = append(opts, expr.AsBool())
	}
	if program, ok := programs.Get(key); ok {
		return program, nil
	}
	program, err := expr.Compile(expression, opts...)
	if err != nil {
		return nil, err
	}
	programs.Put(key, program)
	return program, nil
}

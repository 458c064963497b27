// Package condition provides reusable htn capabilities: expr-lang conditions
// and effects evaluated against the fact store, and key/value conditions and
// effects that double as go-pabt Condition and Effect values.
//
// Expression example:
//
//	builder.Primitive("attack").
//	    Condition("enemy in range", condition.NewExpr(`enemy != nil && distance <= 2`)).
//	    Effect("tire", condition.NewExprEffect("stamina", `stamina - 1`))
//
// go-pabt interop: any pabt.Condition or pabt.Effect (for example the ones
// planned by a PA-BT action) adapts with FromPABT and EffectFromPABT. Keys are
// normalized to fact names with KeyString.
package condition

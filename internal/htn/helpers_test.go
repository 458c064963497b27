package htn

// shared fixtures for the package tests

func setBool(key string, value bool) EffectFunc {
	return func(ctx *Context) { ctx.Set(key, BoolValue(value)) }
}

func always(status TaskStatus) OperatorFunc {
	return func(*Context) TaskStatus { return status }
}

var (
	valid   = ConditionFunc(func(*Context) bool { return true })
	invalid = ConditionFunc(func(*Context) bool { return false })
)

func hasFact(key string) ConditionFunc {
	return func(ctx *Context) bool { return ctx.Has(key) }
}

func lacksFact(key string) ConditionFunc {
	return func(ctx *Context) bool { return !ctx.Has(key) }
}

// taskNames resolves a plan to task names.
func taskNames(b *Behaviour, plan Plan) []string {
	out := make([]string, len(plan))
	for i, index := range plan {
		out[i] = b.Task(index).Name()
	}
	return out
}

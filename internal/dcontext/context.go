package dcontext

import "context"

// Background returns a non-nil, empty base context exactly like
// context.Background, named to make call sites read as dcontext-aware.
func Background() context.Context {
	return context.Background()
}

// GetStringValue returns a string value from the context, or the empty
// string if the value isn't present or isn't a string.
func GetStringValue(ctx context.Context, key interface{}) string {
	v := ctx.Value(key)
	if v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

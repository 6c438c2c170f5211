package dcontext

import "context"

type versionKey struct{}

func (versionKey) String() string { return "version" }

// WithVersion stores the running registry's version string in the context.
func WithVersion(ctx context.Context, version string) context.Context {
	return context.WithValue(ctx, versionKey{}, version)
}

// GetVersion returns the version stored in the context, or "" if none.
func GetVersion(ctx context.Context) string {
	return GetStringValue(ctx, versionKey{})
}

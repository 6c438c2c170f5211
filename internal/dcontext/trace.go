package dcontext

import (
	"context"
	"runtime"
	"time"

	"github.com/containerstack/registry/internal/uuid"
)

// WithTrace allocates a traced timing span in the context, returning a
// context carrying the trace fields and a done function that logs the
// elapsed duration when called. Nested calls pick up the enclosing trace's
// id as their "trace.parent.id".
func WithTrace(ctx context.Context) (context.Context, func(format string, args ...interface{})) {
	if ctx == nil {
		ctx = Background()
	}

	pc, file, line, _ := runtime.Caller(1)
	f := runtime.FuncForPC(pc)

	id := ctx.Value("trace.id")
	ctx = context.WithValue(ctx, "trace.parent.id", id)

	ctx = context.WithValue(ctx, "trace.id", uuid.NewString())
	ctx = context.WithValue(ctx, "trace.file", file)
	ctx = context.WithValue(ctx, "trace.line", line)
	ctx = context.WithValue(ctx, "trace.func", f.Name())
	start := time.Now()
	ctx = context.WithValue(ctx, "trace.start", start)

	return ctx, func(format string, args ...interface{}) {
		GetLogger(ctx,
			"trace.duration",
			"trace.id",
			"trace.file",
			"trace.line",
			"trace.func",
			"trace.parent.id").
			WithField("trace.duration", time.Since(start)).
			Debugf(format, args...)
	}
}

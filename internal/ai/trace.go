package ai

import "context"

type traceKey struct{}

// Trace собирает данные обмена с моделью для журнала AI-запросов.
type Trace struct {
	Provider string
	Model    string
	Prompt   string
	Raw      []byte
	Err      error
}

// WithTrace добавляет в контекст пустой Trace, который заполнит резолвер.
func WithTrace(ctx context.Context) (context.Context, *Trace) {
	trace := &Trace{}
	return context.WithValue(ctx, traceKey{}, trace), trace
}

func traceFromContext(ctx context.Context) *Trace {
	trace, _ := ctx.Value(traceKey{}).(*Trace)
	return trace
}

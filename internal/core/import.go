package core

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// ImportTask is a one-shot handle on an import running in the background.
// It resolves exactly once with a terminal ImportResult.
type ImportTask struct {
	done   chan struct{}
	result ImportResult
}

// Import starts parsing r against columns on its own goroutine and returns
// immediately. The import cannot be cancelled once started; ctx only carries
// request-scoped values to the log line written on completion.
func Import(ctx context.Context, r io.Reader, columns []Column) *ImportTask {
	return startImport(ctx, r, cloneColumns(columns), NewRowID)
}

func startImport(ctx context.Context, r io.Reader, columns []Column, newID func() string) *ImportTask {
	t := &ImportTask{done: make(chan struct{})}
	go func() {
		start := time.Now()
		defer close(t.done)

		t.result = parseRecords(r, columns, newID)

		slog.DebugContext(ctx, "import finished",
			"success", t.result.Success,
			"rows", len(t.result.Data),
			"errors", len(t.result.Errors),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}()
	return t
}

// Done is closed when the import has resolved.
func (t *ImportTask) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the import resolves or ctx ends. A ctx error abandons
// the wait only; the import keeps running and can be waited on again.
func (t *ImportTask) Wait(ctx context.Context) (ImportResult, error) {
	select {
	case <-t.done:
		return t.result, nil
	case <-ctx.Done():
		return ImportResult{}, ctx.Err()
	}
}

// Result returns the terminal result and whether the import has resolved.
func (t *ImportTask) Result() (ImportResult, bool) {
	select {
	case <-t.done:
		return t.result, true
	default:
		return ImportResult{}, false
	}
}

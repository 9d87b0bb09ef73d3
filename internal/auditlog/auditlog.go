// Package auditlog is the secondary durable sink: an append-only file of
// one JSON line per OutcomeRecord, rotated by size, for offline ingestion
// by external log processors.
package auditlog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/abhi542/MouldLensAI/internal/common"
	"github.com/abhi542/MouldLensAI/internal/entity"
)

// Writer appends records as single JSON lines. Each record goes out in one
// Write call under the mutex, so concurrent uploads cannot interleave
// bytes within a line.
type Writer struct {
	mu     sync.Mutex
	out    io.Writer
	closer io.Closer
	logger *slog.Logger
}

// NewWriter opens the rotated audit file.
func NewWriter(cfg common.AuditLogConfig, logger *slog.Logger) *Writer {
	lj := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}
	w := NewWriterTo(lj, logger)
	w.closer = lj
	return w
}

// NewWriterTo wraps an arbitrary destination; used by tests.
func NewWriterTo(out io.Writer, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{out: out, logger: logger}
}

func (w *Writer) Name() string { return "audit_log" }

// Write appends one record. The context is accepted for sink-interface
// symmetry; file appends are not cancellable mid-line.
func (w *Writer) Write(_ context.Context, rec *entity.OutcomeRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit line: %w", err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.out.Write(line); err != nil {
		return fmt.Errorf("append audit line: %w", err)
	}
	return nil
}

// Close flushes the underlying rotated file, if any.
func (w *Writer) Close() error {
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}

package auditlog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/abhi542/MouldLensAI/constants"
	"github.com/abhi542/MouldLensAI/internal/entity"
)

// syncBuffer serializes writes the way a real file descriptor would.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleRecord(id string) *entity.OutcomeRecord {
	cope := "81373"
	return &entity.OutcomeRecord{
		ID:            id,
		Status:        constants.OutcomeSuccess,
		Message:       constants.MsgMouldDetected,
		Cope:          &cope,
		Drag:          &entity.DragValue{Main: "88234"},
		Timestamp:     time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		CameraID:      "camera_01",
		MouldDetected: true,
	}
}

func TestWrite_OneJSONLinePerRecord(t *testing.T) {
	buf := &syncBuffer{}
	w := NewWriterTo(buf, discardLogger())

	require.NoError(t, w.Write(context.Background(), sampleRecord("rec-1")))
	require.NoError(t, w.Write(context.Background(), sampleRecord("rec-2")))

	lines := bytes.Split(bytes.TrimRight(buf.buf.Bytes(), "\n"), []byte("\n"))
	require.Len(t, lines, 2)

	var got entity.OutcomeRecord
	require.NoError(t, json.Unmarshal(lines[0], &got))
	require.Equal(t, "rec-1", got.ID)
	require.Equal(t, constants.OutcomeSuccess, got.Status)
	require.Equal(t, "81373", *got.Cope)
}

func TestWrite_ConcurrentLinesDoNotInterleave(t *testing.T) {
	buf := &syncBuffer{}
	w := NewWriterTo(buf, discardLogger())

	const writers = 16
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(n int) {
			defer wg.Done()
			_ = w.Write(context.Background(), sampleRecord(fmt.Sprintf("rec-%d", n)))
		}(i)
	}
	wg.Wait()

	scanner := bufio.NewScanner(&buf.buf)
	count := 0
	for scanner.Scan() {
		var rec entity.OutcomeRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec), "line %d is not standalone JSON", count)
		count++
	}
	require.Equal(t, writers, count)
}

func TestClose_NoUnderlyingFile(t *testing.T) {
	w := NewWriterTo(&bytes.Buffer{}, discardLogger())
	require.NoError(t, w.Close())
}

func TestName(t *testing.T) {
	w := NewWriterTo(&bytes.Buffer{}, discardLogger())
	require.Equal(t, "audit_log", w.Name())
}

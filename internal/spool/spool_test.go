package spool

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeCapture(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("fake image bytes"), 0o644))
	return path
}

func TestUpload_PostsFormAndArchives(t *testing.T) {
	var gotCamera, gotFilename, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(10<<20))
		gotCamera = r.FormValue("camera_id")
		file, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = hdr.Filename
		gotContentType = hdr.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"rec-1","status":"success","message":"Mould detected successfully"}`))
	}))
	defer srv.Close()

	spoolDir := t.TempDir()
	sentDir := filepath.Join(spoolDir, ".sent")
	capture := writeCapture(t, spoolDir, "capture_001.jpg")

	u := NewUploader(srv.URL, "camera_05", sentDir, srv.Client(), discardLogger())
	res, err := u.Upload(context.Background(), capture)
	require.NoError(t, err)
	require.Equal(t, "rec-1", res.RecordID)
	require.Equal(t, "success", res.Status)

	require.Equal(t, "camera_05", gotCamera)
	require.Equal(t, "capture_001.jpg", gotFilename)
	require.Equal(t, "image/jpeg", gotContentType)

	require.NoFileExists(t, capture, "delivered capture must leave the spool")
	require.FileExists(t, filepath.Join(sentDir, "capture_001.jpg"))
}

func TestUpload_NoSentDirLeavesFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"rec-1","status":"empty","message":"Nothing detected, mould missing"}`))
	}))
	defer srv.Close()

	capture := writeCapture(t, t.TempDir(), "capture.png")
	u := NewUploader(srv.URL, "camera_01", "", srv.Client(), discardLogger())

	res, err := u.Upload(context.Background(), capture)
	require.NoError(t, err)
	require.Equal(t, "empty", res.Status)
	require.FileExists(t, capture)
}

func TestUpload_ServerRejectionKeepsFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"invalid file type"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	spoolDir := t.TempDir()
	capture := writeCapture(t, spoolDir, "capture.jpg")
	u := NewUploader(srv.URL, "camera_01", filepath.Join(spoolDir, ".sent"), srv.Client(), discardLogger())

	_, err := u.Upload(context.Background(), capture)
	require.Error(t, err)
	require.FileExists(t, capture, "failed uploads stay spooled for retry")
}

func TestRun_DrainsChannel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"rec-1","status":"success","message":"ok"}`))
	}))
	defer srv.Close()

	spoolDir := t.TempDir()
	paths := []string{
		writeCapture(t, spoolDir, "a.jpg"),
		writeCapture(t, spoolDir, "b.jpg"),
		filepath.Join(spoolDir, "missing.jpg"),
	}

	captures := make(chan string, len(paths))
	for _, p := range paths {
		captures <- p
	}
	close(captures)

	u := NewUploader(srv.URL, "camera_01", "", srv.Client(), discardLogger())
	stats := u.Run(context.Background(), captures)
	require.Equal(t, uint32(2), stats.Uploaded)
	require.Equal(t, uint32(1), stats.Failed)
}

func TestStartWatcher_InitialScan(t *testing.T) {
	spoolDir := t.TempDir()
	writeCapture(t, spoolDir, "old_1.jpg")
	writeCapture(t, spoolDir, "old_2.png")
	writeCapture(t, spoolDir, "notes.txt")
	writeCapture(t, spoolDir, ".hidden.jpg")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	captures, err := StartWatcher(ctx, WatchConfig{Root: spoolDir, InitialScan: true}, discardLogger())
	require.NoError(t, err)

	got := map[string]bool{}
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case p := <-captures:
			got[filepath.Base(p)] = true
		case <-timeout:
			t.Fatalf("timed out, got %v", got)
		}
	}
	require.True(t, got["old_1.jpg"])
	require.True(t, got["old_2.png"])
}

func TestStartWatcher_EmitsNewCaptures(t *testing.T) {
	spoolDir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	captures, err := StartWatcher(ctx, WatchConfig{Root: spoolDir}, discardLogger())
	require.NoError(t, err)

	path := writeCapture(t, spoolDir, "fresh.jpg")

	select {
	case p := <-captures:
		require.Equal(t, path, p)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never emitted the new capture")
	}
}

func TestStartWatcher_LargeBacklogIsNotDropped(t *testing.T) {
	spoolDir := t.TempDir()
	const captures = 300 // larger than the channel buffer
	for i := 0; i < captures; i++ {
		writeCapture(t, spoolDir, fmt.Sprintf("capture_%03d.jpg", i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := StartWatcher(ctx, WatchConfig{Root: spoolDir, InitialScan: true}, discardLogger())
	require.NoError(t, err)

	got := map[string]bool{}
	timeout := time.After(10 * time.Second)
	for len(got) < captures {
		select {
		case p := <-ch:
			got[filepath.Base(p)] = true
		case <-timeout:
			t.Fatalf("timed out with %d of %d captures; a slow consumer must back-pressure, not lose deliveries", len(got), captures)
		}
	}
}

func TestStartWatcher_CancelClosesChannel(t *testing.T) {
	spoolDir := t.TempDir()
	writeCapture(t, spoolDir, "capture.jpg")

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := StartWatcher(ctx, WatchConfig{Root: spoolDir, InitialScan: true}, discardLogger())
	require.NoError(t, err)
	cancel()

	timeout := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("channel never closed after cancellation")
		}
	}
}

func TestStartWatcher_RequiresRoot(t *testing.T) {
	_, err := StartWatcher(context.Background(), WatchConfig{}, discardLogger())
	require.Error(t, err)
}

func TestIsCapture(t *testing.T) {
	require.True(t, isCapture("/spool/a.JPG"))
	require.True(t, isCapture("b.jpeg"))
	require.True(t, isCapture("c.png"))
	require.False(t, isCapture("d.txt"))
	require.False(t, isCapture("noext"))
}

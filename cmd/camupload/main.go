// camupload is the camera-gateway client: it delivers captures to the
// extraction server, either one file at a time or by watching the spool
// directory the camera writes into.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/abhi542/MouldLensAI/internal/spool"
)

func main() {
	var (
		apiURL   = flag.String("url", "http://localhost:8000/api/upload", "upload endpoint")
		cameraID = flag.String("camera", "camera_01", "camera hardware id")
		imgPath  = flag.String("image", "", "upload a single capture and exit")
		watchDir = flag.String("watch", "", "watch a spool directory and upload new captures")
		sentDir  = flag.String("sent", "", "move delivered captures here (watch mode default: <dir>/.sent)")
		backlog  = flag.Bool("backlog", true, "in watch mode, upload captures already spooled")
		timeout  = flag.Duration("timeout", 60*time.Second, "per-upload timeout")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if (*imgPath == "") == (*watchDir == "") {
		fmt.Fprintln(os.Stderr, "usage: camupload -image <path> | -watch <dir> [-camera id] [-url endpoint]")
		os.Exit(2)
	}

	// In watch mode, delivered captures default to a hidden subdirectory
	// the watcher ignores, so they are never re-uploaded.
	if *watchDir != "" && *sentDir == "" {
		*sentDir = filepath.Join(*watchDir, ".sent")
	}

	uploader := spool.NewUploader(*apiURL, *cameraID, *sentDir,
		&http.Client{Timeout: *timeout}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *imgPath != "" {
		res, err := uploader.Upload(ctx, *imgPath)
		if err != nil {
			logger.Error("upload failed", "path", *imgPath, "error", err)
			os.Exit(1)
		}
		fmt.Printf("%s: %s (%s)\n", res.RecordID, res.Status, res.Message)
		return
	}

	captures, err := spool.StartWatcher(ctx, spool.WatchConfig{
		Root:        *watchDir,
		InitialScan: *backlog,
		Debounce:    500 * time.Millisecond,
	}, logger)
	if err != nil {
		logger.Error("watcher start failed", "root", *watchDir, "error", err)
		os.Exit(1)
	}

	logger.Info("spool watch started", "root", *watchDir, "camera_id", *cameraID)
	stats := uploader.Run(ctx, captures)
	logger.Info("spool watch stopped", "uploaded", stats.Uploaded, "failed", stats.Failed)
	if stats.Failed > 0 {
		os.Exit(1)
	}
}

package spool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"time"

	"github.com/abhi542/MouldLensAI/constants"
)

// UploadResult is what the server reported for one capture.
type UploadResult struct {
	Path     string
	Status   string
	Message  string
	RecordID string
}

// Stats aggregates a spool run.
type Stats struct {
	Uploaded uint32
	Failed   uint32
}

// Uploader delivers captures to the extraction server. One instance per
// gateway process; the http.Client is shared across all uploads.
type Uploader struct {
	endpoint string
	cameraID string
	client   *http.Client
	sentDir  string // captures are moved here after delivery; empty leaves them in place
	logger   *slog.Logger
}

func NewUploader(endpoint, cameraID, sentDir string, client *http.Client, logger *slog.Logger) *Uploader {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		endpoint: endpoint,
		cameraID: cameraID,
		client:   client,
		sentDir:  sentDir,
		logger:   logger,
	}
}

// Upload posts one capture. Any 200 means the server took ownership of
// the outcome, whatever its status field says; only transport failures
// and non-200 codes leave the file in the spool for a retry.
func (u *Uploader) Upload(ctx context.Context, path string) (*UploadResult, error) {
	imageData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read capture: %w", err)
	}

	body, contentType, err := buildForm(filepath.Base(path), u.cameraID, imageData)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post capture: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			u.logger.Warn("spool.body_close_error", "error", cerr)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server status %d: %s", resp.StatusCode, raw)
	}

	var rec struct {
		ID      string `json:"id"`
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	res := &UploadResult{Path: path, Status: rec.Status, Message: rec.Message, RecordID: rec.ID}
	u.logger.Info("spool.uploaded",
		"path", path,
		"record_id", rec.ID,
		"status", rec.Status,
	)

	if err := u.archive(path); err != nil {
		u.logger.Warn("spool.archive_failed", "path", path, "error", err)
	}
	return res, nil
}

// Run drains the watcher channel until it closes, uploading each capture.
func (u *Uploader) Run(ctx context.Context, captures <-chan string) Stats {
	var stats Stats
	for path := range captures {
		if _, err := u.Upload(ctx, path); err != nil {
			u.logger.Error("spool.upload_failed", "path", path, "error", err)
			stats.Failed++
			continue
		}
		stats.Uploaded++
	}
	return stats
}

// archive moves a delivered capture out of the spool so it is not
// re-uploaded on the next scan.
func (u *Uploader) archive(path string) error {
	if u.sentDir == "" {
		return nil
	}
	if err := os.MkdirAll(u.sentDir, 0o755); err != nil {
		return err
	}
	return os.Rename(path, filepath.Join(u.sentDir, filepath.Base(path)))
}

// buildForm assembles the multipart body the upload endpoint expects:
// the image under "file" with an explicit Content-Type, plus camera_id.
func buildForm(filename, cameraID string, imageData []byte) (*bytes.Buffer, string, error) {
	mimeType := "image/jpeg"
	if constants.NormalizeExt(filepath.Ext(filename)) == "png" {
		mimeType = "image/png"
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	hdr.Set("Content-Type", mimeType)
	part, err := w.CreatePart(hdr)
	if err != nil {
		return nil, "", fmt.Errorf("build multipart: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, "", fmt.Errorf("write multipart: %w", err)
	}
	if err := w.WriteField("camera_id", cameraID); err != nil {
		return nil, "", fmt.Errorf("write camera_id: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finish multipart: %w", err)
	}
	return body, w.FormDataContentType(), nil
}

package groq

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhi542/MouldLensAI/internal/common"
	"github.com/abhi542/MouldLensAI/internal/llm"
)

// Extract sends the image to the vision model and returns the raw response
// content with markdown fences stripped. Exactly one outbound request is
// made; timeout and transport failures come back as ErrTimeout/ErrNetwork
// so the pipeline maps them to the error outcome instead of retrying.
func (c *Client) Extract(ctx context.Context, imageData []byte, mimeType string) (llm.RawExtraction, error) {
	rid := uuid.New().String()
	start := time.Now()

	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(imageData)

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "system", "content": llm.SystemPrompt},
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": llm.UserPrompt},
					{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
				},
			},
		},
	}

	c.logger.Info("llm.extract.request",
		"req_id", rid,
		"model", c.cfg.Model,
		"image_bytes", len(imageData),
		"mime_type", mimeType,
	)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	raw, err := c.post(ctx, strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions", body)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, classifyTransportErr(err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.WrapError(common.ErrNetwork, "decode groq envelope")
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.WrapError(common.ErrNetwork, "no choices in groq response")
	}

	content := llm.StripFences(cc.Choices[0].Message.Content)
	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"content_bytes", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return llm.RawExtraction(content), nil
}

func (c *Client) post(ctx context.Context, endpoint string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("llm.extract.body_close_error", "error", cerr)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("groq status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}

var _ llm.VisionExtractor = (*Client)(nil)

// classifyTransportErr splits timeouts from other transport failures so
// the outcome message names the right condition.
func classifyTransportErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return common.WrapError(common.ErrTimeout, "groq")
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return common.WrapError(common.ErrTimeout, "groq")
	}
	return common.WrapError(common.ErrNetwork, err.Error())
}

package facedetect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultDetectTimeout = 60 * time.Second

// HTTPDetector calls an external face-detection service over HTTP. The
// service receives the image URL and returns the detection result; it is
// responsible for fetching and classifying the image itself.
type HTTPDetector struct {
	endpoint string
	client   *http.Client
}

// NewHTTPDetector creates a detector client for the given service endpoint.
// A timeout of zero uses the default.
func NewHTTPDetector(endpoint string, timeout time.Duration) *HTTPDetector {
	if timeout <= 0 {
		timeout = defaultDetectTimeout
	}
	return &HTTPDetector{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type detectRequest struct {
	ImageURL string `json:"image_url"`
}

// Detect posts the image URL to the detection service and decodes the
// result. Non-2xx responses and transport failures are transient: the
// caller skips the item and a later run retries it.
func (d *HTTPDetector) Detect(ctx context.Context, imageURL string) (Result, error) {
	body, err := json.Marshal(detectRequest{ImageURL: imageURL})
	if err != nil {
		return Result{}, fmt.Errorf("facedetect: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("facedetect: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("facedetect: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Result{}, fmt.Errorf("facedetect: service returned %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("facedetect: decode response: %w", err)
	}
	return result, nil
}

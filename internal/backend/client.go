// Package backend is the HTTP client for the external trail processing
// service that parses GPX files, fuses LiDAR elevation data and converts
// GNSS logs.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/runtimeterrors/trailrunners/internal/log"
	"github.com/runtimeterrors/trailrunners/internal/trail"
)

// RequestIDHeader carries the request ID to the backend
const RequestIDHeader = "X-Request-ID"

// maxResponseBytes bounds how much of a backend reply is read
const maxResponseBytes = 256 << 20

// ErrInvalidUpdate is returned for update parameters outside their accepted range
var ErrInvalidUpdate = errors.New("invalid update parameters")

// Update parameter bounds
const (
	MinThreshold = 1
	MaxThreshold = 100
	MinSplits    = 1
	MaxSplits    = 200
)

// Config holds the backend endpoints and client limits
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	ParsePath         string
	LidarPath         string
	ConvertPath       string
	UpdatePath        string
	RequestsPerSecond float64
	Burst             int
}

// StatusError is returned when the backend answers with a non-2xx status
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("backend returned %d", e.Code)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Code, body)
}

// Upload is a file forwarded to the backend
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// UpdateRequest asks the backend to recompute a trail with new parameters
type UpdateRequest struct {
	Elevations           []float64 `json:"elevations"`
	Latitudes            []float64 `json:"latitudes"`
	Longitudes           []float64 `json:"longitudes"`
	CumulativeDistancesM []float64 `json:"cumulative_distances_m"`
	Threshold            float64   `json:"threshold"`
	Segments             int       `json:"segments"`
}

// Validate checks the parameter ranges accepted by the backend
func (u UpdateRequest) Validate() error {
	if math.IsNaN(u.Threshold) || u.Threshold < MinThreshold || u.Threshold > MaxThreshold {
		return fmt.Errorf("%w: threshold %v must be between %d and %d", ErrInvalidUpdate, u.Threshold, MinThreshold, MaxThreshold)
	}
	if u.Segments < MinSplits || u.Segments > MaxSplits {
		return fmt.Errorf("%w: segments %d must be between %d and %d", ErrInvalidUpdate, u.Segments, MinSplits, MaxSplits)
	}
	if len(u.Elevations) != len(u.CumulativeDistancesM) {
		return fmt.Errorf("%w: %d elevations for %d distances", ErrInvalidUpdate, len(u.Elevations), len(u.CumulativeDistancesM))
	}
	return nil
}

// Client talks to the processing backend. It is safe for concurrent use.
type Client struct {
	cfg        Config
	base       *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient validates cfg and creates a client
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL %q: %w", cfg.BaseURL, err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("backend URL %q must be an absolute http(s) URL", cfg.BaseURL)
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		cfg:        cfg,
		base:       base,
		httpClient: newHTTPClient(cfg.Timeout),
		limiter:    rate.NewLimiter(limit, burst),
	}, nil
}

// newHTTPClient creates an HTTP client with timeout
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
	}
}

// ParseTrail sends a GPX file to the parser endpoint
func (c *Client) ParseTrail(ctx context.Context, gpx Upload) (*trail.Trail, error) {
	body, contentType, err := multipartBody(map[string]Upload{"file": gpx})
	if err != nil {
		return nil, err
	}

	var t trail.Trail
	if err := c.doJSON(ctx, c.cfg.ParsePath, contentType, body, &t); err != nil {
		return nil, fmt.Errorf("parse trail: %w", err)
	}
	return &t, nil
}

// ProcessLidar sends a LiDAR file, optionally with the trail it covers, to the fusion endpoint
func (c *Client) ProcessLidar(ctx context.Context, lidar Upload, gpx *Upload) (*trail.Trail, error) {
	parts := map[string]Upload{"lidar_file": lidar}
	if gpx != nil {
		parts["gpx_file"] = *gpx
	}

	body, contentType, err := multipartBody(parts)
	if err != nil {
		return nil, err
	}

	var t trail.Trail
	if err := c.doJSON(ctx, c.cfg.LidarPath, contentType, body, &t); err != nil {
		return nil, fmt.Errorf("process lidar: %w", err)
	}
	return &t, nil
}

// ConvertGNSS sends a raw GNSS log to the converter and returns the GPX document
func (c *Client) ConvertGNSS(ctx context.Context, raw Upload) ([]byte, error) {
	body, contentType, err := multipartBody(map[string]Upload{"file": raw})
	if err != nil {
		return nil, err
	}

	data, err := c.do(ctx, c.cfg.ConvertPath, contentType, body)
	if err != nil {
		return nil, fmt.Errorf("convert gnss: %w", err)
	}
	return data, nil
}

// Update asks the backend to recompute a trail with a new threshold and split count
func (c *Client) Update(ctx context.Context, req UpdateRequest) (*trail.Trail, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode update: %w", err)
	}

	var t trail.Trail
	if err := c.doJSON(ctx, c.cfg.UpdatePath, "application/json", body, &t); err != nil {
		return nil, fmt.Errorf("update trail: %w", err)
	}
	return &t, nil
}

func (c *Client) doJSON(ctx context.Context, path, contentType string, body []byte, out any) error {
	data, err := c.do(ctx, path, contentType, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode backend response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, path, contentType string, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	endpoint := c.base.JoinPath(path).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if id := log.RequestID(ctx); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend request to %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read backend response: %w", err)
	}

	log.FromContext(ctx).Debugw("backend call", "path", path, "status", resp.StatusCode,
		"bytes", len(data), "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

func multipartBody(parts map[string]Upload) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	// Deterministic field order
	for _, field := range []string{"file", "lidar_file", "gpx_file"} {
		up, ok := parts[field]
		if !ok {
			continue
		}

		contentType := up.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, up.FileName))
		h.Set("Content-Type", contentType)

		pw, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create %s part: %w", field, err)
		}
		if _, err := pw.Write(up.Data); err != nil {
			return nil, "", fmt.Errorf("write %s part: %w", field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

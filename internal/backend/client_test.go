package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runtimeterrors/trailrunners/internal/log"
)

const trailJSON = `{
	"cumulative_distances_m": [0, 500, 1000],
	"elevations": [10, 20, 15],
	"total_distance_m": 1000,
	"altitudeChange": 5
}`

// fakeBackend records the last request per path and answers with canned replies
type fakeBackend struct {
	t        *testing.T
	mu       sync.Mutex
	requests map[string]*http.Request
	forms    map[string]map[string]string
	bodies   map[string][]byte
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	fb := &fakeBackend{
		t:        t,
		requests: map[string]*http.Request{},
		forms:    map[string]map[string]string{},
		bodies:   map[string][]byte{},
	}
	srv := httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(srv.Close)
	return fb, srv
}

func (fb *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.requests[r.URL.Path] = r

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			fb.t.Errorf("ParseMultipartForm: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		files := map[string]string{}
		for field, headers := range r.MultipartForm.File {
			f, err := headers[0].Open()
			if err != nil {
				fb.t.Errorf("open %s: %v", field, err)
				continue
			}
			data, _ := io.ReadAll(f)
			f.Close()
			files[field] = headers[0].Filename + ":" + string(data)
		}
		fb.forms[r.URL.Path] = files
	} else {
		fb.bodies[r.URL.Path], _ = io.ReadAll(r.Body)
	}

	switch r.URL.Path {
	case "/parse", "/process-lidar", "/update":
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, trailJSON)
	case "/convert":
		w.Header().Set("Content-Type", "application/gpx+xml")
		io.WriteString(w, "<gpx></gpx>")
	case "/broken":
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"detail":"no track points"}`)
	default:
		http.NotFound(w, r)
	}
}

func (fb *fakeBackend) request(path string) *http.Request {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.requests[path]
}

func (fb *fakeBackend) form(path string) map[string]string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.forms[path]
}

func (fb *fakeBackend) body(path string) []byte {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.bodies[path]
}

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:     baseURL,
		Timeout:     5 * time.Second,
		ParsePath:   "/parse",
		LidarPath:   "/process-lidar",
		ConvertPath: "/convert",
		UpdatePath:  "/update",
	}
}

func TestNewClientRejectsBadURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"relative", "/api"},
		{"ftp", "ftp://example.com"},
		{"unparsable", "http://[::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(Config{BaseURL: tt.url})
			assert.Error(t, err)
		})
	}
}

func TestParseTrail(t *testing.T) {
	fb, srv := newFakeBackend(t)
	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	ctx := log.WithRequestID(context.Background(), "req-123")
	tr, err := c.ParseTrail(ctx, Upload{FileName: "ridge.gpx", Data: []byte("<gpx/>")})
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 500, 1000}, tr.CumulativeDistancesM)
	assert.Contains(t, tr.Extra, "altitudeChange")

	req := fb.request("/parse")
	require.NotNil(t, req)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "req-123", req.Header.Get(RequestIDHeader))
	assert.Equal(t, map[string]string{"file": "ridge.gpx:<gpx/>"}, fb.form("/parse"))
}

func TestProcessLidar(t *testing.T) {
	fb, srv := newFakeBackend(t)
	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = c.ProcessLidar(context.Background(), Upload{FileName: "scan.laz", Data: []byte("LAZ")}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"lidar_file": "scan.laz:LAZ"}, fb.form("/process-lidar"))
	assert.Empty(t, fb.request("/process-lidar").Header.Get(RequestIDHeader))

	gpx := &Upload{FileName: "ridge.gpx", ContentType: "application/gpx+xml", Data: []byte("<gpx/>")}
	_, err = c.ProcessLidar(context.Background(), Upload{FileName: "scan.laz", Data: []byte("LAZ")}, gpx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"lidar_file": "scan.laz:LAZ",
		"gpx_file":   "ridge.gpx:<gpx/>",
	}, fb.form("/process-lidar"))
}

func TestConvertGNSS(t *testing.T) {
	fb, srv := newFakeBackend(t)
	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	out, err := c.ConvertGNSS(context.Background(), Upload{FileName: "gnss_log.txt", Data: []byte("Fix,...")})
	require.NoError(t, err)
	assert.Equal(t, "<gpx></gpx>", string(out))
	assert.Equal(t, "gnss_log.txt:Fix,...", fb.form("/convert")["file"])
}

func TestUpdate(t *testing.T) {
	fb, srv := newFakeBackend(t)
	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	req := UpdateRequest{
		Elevations:           []float64{10, 20},
		Latitudes:            []float64{46, 46.1},
		Longitudes:           []float64{7, 7.1},
		CumulativeDistancesM: []float64{0, 100},
		Threshold:            10,
		Segments:             5,
	}
	tr, err := c.Update(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, tr.TotalDistanceM)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(fb.body("/update"), &sent))
	assert.Equal(t, 10.0, sent["threshold"])
	assert.Equal(t, 5.0, sent["segments"])
	assert.Equal(t, []any{0.0, 100.0}, sent["cumulative_distances_m"])
	assert.Equal(t, "application/json", fb.request("/update").Header.Get("Content-Type"))
}

func TestUpdateValidate(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		segments  int
		valid     bool
	}{
		{"defaults", 10, 5, true},
		{"bounds", 1, 200, true},
		{"threshold zero", 0, 5, false},
		{"threshold too high", 101, 5, false},
		{"segments zero", 10, 0, false},
		{"segments too high", 10, 201, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := UpdateRequest{Threshold: tt.threshold, Segments: tt.segments}.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidUpdate)
			}
		})
	}
}

func TestStatusError(t *testing.T) {
	_, srv := newFakeBackend(t)
	cfg := testConfig(srv.URL)
	cfg.ParsePath = "/broken"
	c, err := NewClient(cfg)
	require.NoError(t, err)

	_, err = c.ParseTrail(context.Background(), Upload{FileName: "bad.gpx"})
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnprocessableEntity, se.Code)
	assert.Contains(t, se.Error(), "no track points")
}

func TestBackendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(testConfig(url))
	require.NoError(t, err)

	_, err = c.ConvertGNSS(context.Background(), Upload{FileName: "x.txt"})
	require.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestRateLimiterHonoursContext(t *testing.T) {
	_, srv := newFakeBackend(t)
	cfg := testConfig(srv.URL)
	cfg.RequestsPerSecond = 0.001
	cfg.Burst = 1
	c, err := NewClient(cfg)
	require.NoError(t, err)

	_, err = c.ConvertGNSS(context.Background(), Upload{FileName: "a.txt"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.ConvertGNSS(ctx, Upload{FileName: "b.txt"})
	assert.Error(t, err, "second call must wait for a token and give up with the context")
}

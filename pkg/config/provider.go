package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration, with defaults applied and validated
	LoadConfig() (*ConfigData, error)

	IsReadOnly() bool
	Close() error
}

// Default values applied to unset configuration fields
const (
	DefaultPort              = 8080
	DefaultMaxUploadMB       = 100
	DefaultBackendURL        = "http://127.0.0.1:8000"
	DefaultBackendTimeout    = 120 * time.Second
	DefaultParsePath         = "/parse"
	DefaultLidarPath         = "/process-lidar"
	DefaultConvertPath       = "/convert"
	DefaultUpdatePath        = "/update"
	DefaultRequestsPerSecond = 5.0
	DefaultBurst             = 10
	DefaultTrailsDir         = "trails"
	DefaultLidarDir          = "lidarFiles"
	DefaultSegments          = 20
	DefaultMaxSegments       = 200
	DefaultChartTheme        = "white"
	DefaultLogMaxSizeMB      = 50
	DefaultLogMaxBackups     = 3
)

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Server  ServerData  `json:"server"`
	Backend BackendData `json:"backend"`
	Trails  TrailsData  `json:"trails"`
	Chart   ChartData   `json:"chart"`
	Logging LoggingData `json:"logging"`
}

// ServerData configures the HTTP listener
type ServerData struct {
	ListenAddr  string `json:"listen_addr,omitempty"`
	Port        int    `json:"port,omitempty"`
	Cert        string `json:"cert,omitempty"`
	Key         string `json:"key,omitempty"`
	MaxUploadMB int    `json:"max_upload_mb,omitempty"`
}

// BackendData configures the external trail processing backend
type BackendData struct {
	BaseURL           string  `json:"base_url"`
	Timeout           string  `json:"timeout,omitempty"`
	ParsePath         string  `json:"parse_path,omitempty"`
	LidarPath         string  `json:"lidar_path,omitempty"`
	ConvertPath       string  `json:"convert_path,omitempty"`
	UpdatePath        string  `json:"update_path,omitempty"`
	RequestsPerSecond float64 `json:"requests_per_second,omitempty"`
	Burst             int     `json:"burst,omitempty"`
}

// TrailsData points at the bundled trail and LiDAR files
type TrailsData struct {
	TrailsDir string `json:"trails_dir,omitempty"`
	LidarDir  string `json:"lidar_dir,omitempty"`
}

// ChartData configures segmentation and chart rendering
type ChartData struct {
	DefaultSegments       int    `json:"default_segments,omitempty"`
	MaxSegments           int    `json:"max_segments,omitempty"`
	PreferBackendSegments bool   `json:"prefer_backend_segments,omitempty"`
	Theme                 string `json:"theme,omitempty"`
	AssetsHost            string `json:"assets_host,omitempty"`
}

// LoggingData configures the optional rotated log file
type LoggingData struct {
	File       string `json:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty"`
}

// TimeoutDuration returns the parsed backend timeout
func (b BackendData) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(b.Timeout)
	if err != nil || d <= 0 {
		return DefaultBackendTimeout
	}
	return d
}

// ApplyDefaults fills in every unset field
func (c *ConfigData) ApplyDefaults() {
	setDefault(&c.Server.Port, DefaultPort)
	setDefault(&c.Server.MaxUploadMB, DefaultMaxUploadMB)

	setDefault(&c.Backend.BaseURL, DefaultBackendURL)
	setDefault(&c.Backend.Timeout, DefaultBackendTimeout.String())
	setDefault(&c.Backend.ParsePath, DefaultParsePath)
	setDefault(&c.Backend.LidarPath, DefaultLidarPath)
	setDefault(&c.Backend.ConvertPath, DefaultConvertPath)
	setDefault(&c.Backend.UpdatePath, DefaultUpdatePath)
	setDefault(&c.Backend.RequestsPerSecond, DefaultRequestsPerSecond)
	setDefault(&c.Backend.Burst, DefaultBurst)

	setDefault(&c.Trails.TrailsDir, DefaultTrailsDir)
	setDefault(&c.Trails.LidarDir, DefaultLidarDir)

	setDefault(&c.Chart.MaxSegments, DefaultMaxSegments)
	setDefault(&c.Chart.DefaultSegments, min(DefaultSegments, c.Chart.MaxSegments))
	setDefault(&c.Chart.Theme, DefaultChartTheme)

	setDefault(&c.Logging.MaxSizeMB, DefaultLogMaxSizeMB)
	setDefault(&c.Logging.MaxBackups, DefaultLogMaxBackups)
}

// Validate reports the first invalid setting
func (c *ConfigData) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", c.Server.Port)
	}
	if (c.Server.Cert == "") != (c.Server.Key == "") {
		return errors.New("server cert and key must be set together")
	}

	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend base_url %q must be an absolute http(s) URL", c.Backend.BaseURL)
	}
	if _, err := time.ParseDuration(c.Backend.Timeout); err != nil {
		return fmt.Errorf("backend timeout %q: %w", c.Backend.Timeout, err)
	}
	if c.Backend.RequestsPerSecond < 0 {
		return errors.New("backend requests_per_second must not be negative")
	}

	if c.Chart.MaxSegments < 1 {
		return fmt.Errorf("chart max_segments %d must be at least 1", c.Chart.MaxSegments)
	}
	if c.Chart.DefaultSegments < 1 || c.Chart.DefaultSegments > c.Chart.MaxSegments {
		return fmt.Errorf("chart default_segments %d must be between 1 and %d", c.Chart.DefaultSegments, c.Chart.MaxSegments)
	}

	return nil
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}

// finalize applies defaults and validates a freshly loaded configuration
func finalize(c *ConfigData) (*ConfigData, error) {
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

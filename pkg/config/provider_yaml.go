package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	if y.config != nil {
		return y.config, nil
	}

	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Server  ServerYAML  `yaml:"server,omitempty"`
		Backend BackendYAML `yaml:"backend,omitempty"`
		Trails  TrailsYAML  `yaml:"trails,omitempty"`
		Chart   ChartYAML   `yaml:"chart,omitempty"`
		Logging LoggingYAML `yaml:"logging,omitempty"`
	}

	err = yaml.UnmarshalStrict(cfgFile, &yamlConfig)
	if err != nil {
		return nil, err
	}

	config := &ConfigData{
		Server: ServerData{
			ListenAddr:  yamlConfig.Server.ListenAddr,
			Port:        yamlConfig.Server.Port,
			Cert:        yamlConfig.Server.Cert,
			Key:         yamlConfig.Server.Key,
			MaxUploadMB: yamlConfig.Server.MaxUploadMB,
		},
		Backend: BackendData{
			BaseURL:           yamlConfig.Backend.BaseURL,
			Timeout:           yamlConfig.Backend.Timeout,
			ParsePath:         yamlConfig.Backend.ParsePath,
			LidarPath:         yamlConfig.Backend.LidarPath,
			ConvertPath:       yamlConfig.Backend.ConvertPath,
			UpdatePath:        yamlConfig.Backend.UpdatePath,
			RequestsPerSecond: yamlConfig.Backend.RequestsPerSecond,
			Burst:             yamlConfig.Backend.Burst,
		},
		Trails: TrailsData{
			TrailsDir: yamlConfig.Trails.TrailsDir,
			LidarDir:  yamlConfig.Trails.LidarDir,
		},
		Chart: ChartData{
			DefaultSegments:       yamlConfig.Chart.DefaultSegments,
			MaxSegments:           yamlConfig.Chart.MaxSegments,
			PreferBackendSegments: yamlConfig.Chart.PreferBackendSegments,
			Theme:                 yamlConfig.Chart.Theme,
			AssetsHost:            yamlConfig.Chart.AssetsHost,
		},
		Logging: LoggingData{
			File:       yamlConfig.Logging.File,
			MaxSizeMB:  yamlConfig.Logging.MaxSizeMB,
			MaxBackups: yamlConfig.Logging.MaxBackups,
		},
	}

	config, err = finalize(config)
	if err != nil {
		return nil, err
	}

	y.config = config
	return config, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with the hyphenated keys used in config files
type ServerYAML struct {
	ListenAddr  string `yaml:"listen-addr,omitempty"`
	Port        int    `yaml:"port,omitempty"`
	Cert        string `yaml:"cert,omitempty"`
	Key         string `yaml:"key,omitempty"`
	MaxUploadMB int    `yaml:"max-upload-mb,omitempty"`
}

type BackendYAML struct {
	BaseURL           string  `yaml:"base-url,omitempty"`
	Timeout           string  `yaml:"timeout,omitempty"`
	ParsePath         string  `yaml:"parse-path,omitempty"`
	LidarPath         string  `yaml:"lidar-path,omitempty"`
	ConvertPath       string  `yaml:"convert-path,omitempty"`
	UpdatePath        string  `yaml:"update-path,omitempty"`
	RequestsPerSecond float64 `yaml:"requests-per-second,omitempty"`
	Burst             int     `yaml:"burst,omitempty"`
}

type TrailsYAML struct {
	TrailsDir string `yaml:"trails-dir,omitempty"`
	LidarDir  string `yaml:"lidar-dir,omitempty"`
}

type ChartYAML struct {
	DefaultSegments       int    `yaml:"default-segments,omitempty"`
	MaxSegments           int    `yaml:"max-segments,omitempty"`
	PreferBackendSegments bool   `yaml:"prefer-backend-segments,omitempty"`
	Theme                 string `yaml:"theme,omitempty"`
	AssetsHost            string `yaml:"assets-host,omitempty"`
}

type LoggingYAML struct {
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max-size-mb,omitempty"`
	MaxBackups int    `yaml:"max-backups,omitempty"`
}

// Command trailrunners serves the trail elevation viewer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/runtimeterrors/trailrunners/internal/app"
	"github.com/runtimeterrors/trailrunners/internal/constants"
	"github.com/runtimeterrors/trailrunners/internal/log"
	"github.com/runtimeterrors/trailrunners/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to configuration source (config.yaml or config.db, see config-convert)")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend: yaml or sqlite")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", constants.AppName, constants.Version)
		return
	}

	if err := log.Init(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := loadConfig(*cfgFile, *cfgBackend)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		log.Sync()
		os.Exit(1)
	}

	if err := setupLogFile(*debug, cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}

	err = app.New(cfg, log.GetSugaredLogger()).Run(context.Background())
	log.Sync()
	if err != nil {
		log.Errorf("trailrunners exited: %v", err)
		os.Exit(1)
	}
}

// setupLogFile switches the logger to a rotated file once the configuration names one
func setupLogFile(debug bool, l config.LoggingData) error {
	if l.File == "" {
		return nil
	}
	if err := log.InitWithFile(debug, log.FileOptions{
		Path:       l.File,
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
	}); err != nil {
		return err
	}
	log.Infow("logging to file", "path", l.File, "max_size_mb", l.MaxSizeMB, "max_backups", l.MaxBackups)
	return nil
}

func loadConfig(cfgFile, cfgBackend string) (*config.ConfigData, error) {
	path, err := filepath.Abs(cfgFile)
	if err != nil {
		return nil, err
	}

	var provider config.ConfigProvider
	switch cfgBackend {
	case "yaml":
		provider = config.NewYAMLProvider(path)
	case "sqlite":
		if provider, err = config.NewSQLiteProvider(path); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported configuration backend %q, use yaml or sqlite", cfgBackend)
	}
	defer provider.Close()

	cfg, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("reading %s (run with -h for help): %w", path, err)
	}
	return cfg, nil
}

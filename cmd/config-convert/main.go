// Command config-convert copies a YAML configuration into a SQLite
// configuration database and optionally checks the copy section by section.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/go-cmp/cmp"

	"github.com/runtimeterrors/trailrunners/pkg/config"
)

var errMismatch = errors.New("configuration mismatch")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "config-convert: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	yamlFile   string
	sqliteFile string
	force      bool
	dryRun     bool
	verifyOnly bool
}

func run(args []string, out io.Writer) error {
	var o options
	fs := flag.NewFlagSet("config-convert", flag.ContinueOnError)
	fs.StringVar(&o.yamlFile, "yaml", "", "Path to YAML configuration file (required)")
	fs.StringVar(&o.sqliteFile, "sqlite", "", "Path to SQLite database file (required)")
	fs.BoolVar(&o.force, "force", false, "Overwrite an existing SQLite database")
	fs.BoolVar(&o.dryRun, "dry-run", false, "Print the parsed configuration without writing")
	fs.BoolVar(&o.verifyOnly, "verify", false, "Only compare an existing SQLite database against the YAML file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if o.yamlFile == "" || o.sqliteFile == "" {
		fs.Usage()
		return errors.New("-yaml and -sqlite are required")
	}

	yamlConfig, err := config.NewYAMLProvider(o.yamlFile).LoadConfig()
	if err != nil {
		return fmt.Errorf("load %s: %w", o.yamlFile, err)
	}

	if o.dryRun {
		printSummary(out, yamlConfig)
		return nil
	}

	if !o.verifyOnly {
		if err := convert(o, yamlConfig); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", o.sqliteFile)
	}

	return verify(out, o.sqliteFile, yamlConfig)
}

func convert(o options, cfg *config.ConfigData) error {
	if _, err := os.Stat(o.sqliteFile); err == nil {
		if !o.force {
			return fmt.Errorf("%s already exists, use -force to overwrite", o.sqliteFile)
		}
		if err := os.Remove(o.sqliteFile); err != nil {
			return fmt.Errorf("remove %s: %w", o.sqliteFile, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(o.sqliteFile), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	// Opening the provider applies the schema migrations
	p, err := config.NewSQLiteProvider(o.sqliteFile)
	if err != nil {
		return err
	}
	defer p.Close()
	return p.SaveConfig(cfg)
}

// verify reloads the database and diffs every section against want
func verify(out io.Writer, sqliteFile string, want *config.ConfigData) error {
	p, err := config.NewSQLiteProvider(sqliteFile)
	if err != nil {
		return err
	}
	defer p.Close()

	got, err := p.LoadConfig()
	if err != nil {
		return fmt.Errorf("load %s: %w", sqliteFile, err)
	}

	sections := []struct {
		name         string
		yaml, sqlite any
	}{
		{"server", want.Server, got.Server},
		{"backend", want.Backend, got.Backend},
		{"trails", want.Trails, got.Trails},
		{"chart", want.Chart, got.Chart},
		{"logging", want.Logging, got.Logging},
	}

	mismatched := 0
	for _, s := range sections {
		if diff := cmp.Diff(s.yaml, s.sqlite); diff != "" {
			mismatched++
			fmt.Fprintf(out, "✗ %s differs (-yaml +sqlite):\n%s\n", s.name, diff)
			continue
		}
		fmt.Fprintf(out, "✓ %s\n", s.name)
	}
	if mismatched > 0 {
		return fmt.Errorf("%w: %d of %d sections", errMismatch, mismatched, len(sections))
	}
	return nil
}

func printSummary(out io.Writer, c *config.ConfigData) {
	fmt.Fprintf(out, "server   %s:%d, uploads up to %d MB\n", c.Server.ListenAddr, c.Server.Port, c.Server.MaxUploadMB)
	fmt.Fprintf(out, "backend  %s, timeout %s, %.1f req/s\n", c.Backend.BaseURL, c.Backend.TimeoutDuration(), c.Backend.RequestsPerSecond)
	fmt.Fprintf(out, "trails   %s, lidar %s\n", c.Trails.TrailsDir, c.Trails.LidarDir)
	fmt.Fprintf(out, "chart    %d segments (max %d), prefer backend %v\n", c.Chart.DefaultSegments, c.Chart.MaxSegments, c.Chart.PreferBackendSegments)
	if c.Logging.File != "" {
		fmt.Fprintf(out, "logging  %s\n", c.Logging.File)
	}
}

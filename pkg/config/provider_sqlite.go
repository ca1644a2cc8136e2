package config

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/runtimeterrors/trailrunners/pkg/migrate"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const defaultConfigName = "default"

// MigrationTable records the applied config schema version
const MigrationTable = "config_schema_migrations"

// NewMigrator returns a migrator for the embedded config schema. logger may be nil.
func NewMigrator(db *sql.DB, logger *zap.SugaredLogger) *migrate.Migrator {
	return migrate.NewMigrator(db, migrate.NewFSProvider(migrationsFS, "migrations", MigrationTable), logger)
}

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider opens the database at dbPath and brings its schema up to date
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if err := NewMigrator(db, nil).MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate config database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the default configuration from the database. A database
// without a stored configuration yields the built-in defaults.
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	query := `
		SELECT s.listen_addr, s.port, s.tls_cert, s.tls_key, s.max_upload_mb,
		       b.base_url, b.timeout, b.parse_path, b.lidar_path, b.convert_path,
		       b.update_path, b.requests_per_second, b.burst,
		       t.trails_dir, t.lidar_dir,
		       ch.default_segments, ch.max_segments, ch.prefer_backend_segments,
		       ch.theme, ch.assets_host,
		       l.file, l.max_size_mb, l.max_backups
		FROM configs c
		LEFT JOIN server_configs s ON s.config_id = c.id
		LEFT JOIN backend_configs b ON b.config_id = c.id
		LEFT JOIN trails_configs t ON t.config_id = c.id
		LEFT JOIN chart_configs ch ON ch.config_id = c.id
		LEFT JOIN logging_configs l ON l.config_id = c.id
		WHERE c.name = ?
	`

	var (
		listenAddr, cert, key                               sql.NullString
		port, maxUpload                                     sql.NullInt64
		baseURL, timeout, parsePath, lidarPath, convertPath sql.NullString
		updatePath                                          sql.NullString
		rps                                                 sql.NullFloat64
		burst                                               sql.NullInt64
		trailsDir, lidarDir                                 sql.NullString
		defaultSegments, maxSegments                        sql.NullInt64
		preferBackend                                       sql.NullBool
		theme, assetsHost, logFile                          sql.NullString
		logMaxSize, logMaxBackups                           sql.NullInt64
	)

	err := s.db.QueryRow(query, defaultConfigName).Scan(
		&listenAddr, &port, &cert, &key, &maxUpload,
		&baseURL, &timeout, &parsePath, &lidarPath, &convertPath,
		&updatePath, &rps, &burst,
		&trailsDir, &lidarDir,
		&defaultSegments, &maxSegments, &preferBackend,
		&theme, &assetsHost,
		&logFile, &logMaxSize, &logMaxBackups,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return finalize(&ConfigData{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query configuration: %w", err)
	}

	config := &ConfigData{
		Server: ServerData{
			ListenAddr:  listenAddr.String,
			Port:        int(port.Int64),
			Cert:        cert.String,
			Key:         key.String,
			MaxUploadMB: int(maxUpload.Int64),
		},
		Backend: BackendData{
			BaseURL:           baseURL.String,
			Timeout:           timeout.String,
			ParsePath:         parsePath.String,
			LidarPath:         lidarPath.String,
			ConvertPath:       convertPath.String,
			UpdatePath:        updatePath.String,
			RequestsPerSecond: rps.Float64,
			Burst:             int(burst.Int64),
		},
		Trails: TrailsData{
			TrailsDir: trailsDir.String,
			LidarDir:  lidarDir.String,
		},
		Chart: ChartData{
			DefaultSegments:       int(defaultSegments.Int64),
			MaxSegments:           int(maxSegments.Int64),
			PreferBackendSegments: preferBackend.Bool,
			Theme:                 theme.String,
			AssetsHost:            assetsHost.String,
		},
		Logging: LoggingData{
			File:       logFile.String,
			MaxSizeMB:  int(logMaxSize.Int64),
			MaxBackups: int(logMaxBackups.Int64),
		},
	}

	return finalize(config)
}

// IsReadOnly returns false since SQLite configuration can be modified
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveConfig replaces the stored default configuration
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	configID, err := s.getOrCreateConfigID(tx)
	if err != nil {
		return err
	}

	statements := []struct {
		section string
		query   string
		args    []any
	}{
		{
			"server",
			`INSERT OR REPLACE INTO server_configs (config_id, listen_addr, port, tls_cert, tls_key, max_upload_mb) VALUES (?, ?, ?, ?, ?, ?)`,
			[]any{configID, nullString(configData.Server.ListenAddr), configData.Server.Port,
				nullString(configData.Server.Cert), nullString(configData.Server.Key), configData.Server.MaxUploadMB},
		},
		{
			"backend",
			`INSERT OR REPLACE INTO backend_configs (config_id, base_url, timeout, parse_path, lidar_path, convert_path, update_path, requests_per_second, burst) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			[]any{configID, nullString(configData.Backend.BaseURL), nullString(configData.Backend.Timeout),
				nullString(configData.Backend.ParsePath), nullString(configData.Backend.LidarPath),
				nullString(configData.Backend.ConvertPath), nullString(configData.Backend.UpdatePath),
				configData.Backend.RequestsPerSecond, configData.Backend.Burst},
		},
		{
			"trails",
			`INSERT OR REPLACE INTO trails_configs (config_id, trails_dir, lidar_dir) VALUES (?, ?, ?)`,
			[]any{configID, nullString(configData.Trails.TrailsDir), nullString(configData.Trails.LidarDir)},
		},
		{
			"chart",
			`INSERT OR REPLACE INTO chart_configs (config_id, default_segments, max_segments, prefer_backend_segments, theme, assets_host) VALUES (?, ?, ?, ?, ?, ?)`,
			[]any{configID, configData.Chart.DefaultSegments, configData.Chart.MaxSegments,
				configData.Chart.PreferBackendSegments, nullString(configData.Chart.Theme), nullString(configData.Chart.AssetsHost)},
		},
		{
			"logging",
			`INSERT OR REPLACE INTO logging_configs (config_id, file, max_size_mb, max_backups) VALUES (?, ?, ?, ?)`,
			[]any{configID, nullString(configData.Logging.File), configData.Logging.MaxSizeMB, configData.Logging.MaxBackups},
		},
	}

	for _, st := range statements {
		if _, err := tx.Exec(st.query, st.args...); err != nil {
			return fmt.Errorf("failed to save %s config: %w", st.section, err)
		}
	}

	if _, err := tx.Exec(`UPDATE configs SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, configID); err != nil {
		return fmt.Errorf("failed to touch config: %w", err)
	}

	return tx.Commit()
}

// getOrCreateConfigID gets the default config ID, creating the row when needed
func (s *SQLiteProvider) getOrCreateConfigID(tx *sql.Tx) (int64, error) {
	var configID int64
	err := tx.QueryRow("SELECT id FROM configs WHERE name = ?", defaultConfigName).Scan(&configID)
	if err == nil {
		return configID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up config: %w", err)
	}

	result, err := tx.Exec("INSERT INTO configs (name) VALUES (?)", defaultConfigName)
	if err != nil {
		return 0, fmt.Errorf("failed to create default config: %w", err)
	}
	return result.LastInsertId()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

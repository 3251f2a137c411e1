package gridwalk

import "time"

// Config consolidates settings for every subsystem of the engine, one nested
// struct per concern.
type Config struct {
	DuckDB   DuckDBConfig   `json:"duckdb"`
	Query    QueryConfig    `json:"query"`
	Viewport ViewportConfig `json:"viewport"`
	History  HistoryConfig  `json:"history"`
	Logging  LoggingConfig  `json:"logging"`
}

// DuckDBConfig controls the in-memory DuckDB instance backing every DataTable.
type DuckDBConfig struct {
	Enabled        bool          `json:"enabled"`
	DBPath         string        `json:"dbPath"` // empty means ":memory:"
	MaxConnections int           `json:"maxConnections"`
	PingTimeout    time.Duration `json:"pingTimeout"`
}

// QueryConfig controls load batching and query execution limits.
type QueryConfig struct {
	LoadBatchSize     int           `json:"loadBatchSize"`
	TypeInferenceRows int           `json:"typeInferenceRows"`
	DefaultTimeout    time.Duration `json:"defaultTimeout"`
	MaxRows           int           `json:"maxRows"`
}

// ViewportConfig controls rendering geometry defaults.
type ViewportConfig struct {
	ChromeLines   int `json:"chromeLines"`
	ColumnCap     int `json:"columnCap"`
	CompactCap    int `json:"compactCap"`
	PrefetchRows  int `json:"prefetchRows"`
}

// HistoryConfig controls the on-disk query history log.
type HistoryConfig struct {
	Enabled bool   `json:"enabled"`
	Dir     string `json:"dir"` // empty means os.UserConfigDir()/gridwalk
}

// LoggingConfig controls the zap logger construction in cmd/gridwalk.
type LoggingConfig struct {
	Development bool   `json:"development"`
	Level       string `json:"level"`
}

// DefaultConfig returns the engine defaults used unless overridden by flags/env.
func DefaultConfig() Config {
	return Config{
		DuckDB: DuckDBConfig{
			Enabled:        true,
			DBPath:         "",
			MaxConnections: 1,
			PingTimeout:    5 * time.Second,
		},
		Query: QueryConfig{
			LoadBatchSize:     500,
			TypeInferenceRows: 1024,
			DefaultTimeout:    30 * time.Second,
			MaxRows:           1_000_000,
		},
		Viewport: ViewportConfig{
			ChromeLines:  4,
			ColumnCap:    60,
			CompactCap:   50,
			PrefetchRows: 32,
		},
		History: HistoryConfig{
			Enabled: true,
			Dir:     "",
		},
		Logging: LoggingConfig{
			Development: false,
			Level:       "info",
		},
	}
}

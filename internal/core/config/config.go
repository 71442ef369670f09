package config

import "time"

const (
	DefaultConfigFile = "repolens.toml"
	envPrefix         = "REPOLENS_"
)

type Config struct {
	Version       int           `toml:"version"`
	Paths         Paths         `toml:"paths"`
	Store         Store         `toml:"store"`
	History       History       `toml:"history"`
	Tree          Tree          `toml:"tree"`
	Output        Output        `toml:"output"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Paths struct {
	ProjectRoot string `toml:"project_root"`
	StateDir    string `toml:"state_dir"`
}

type Store struct {
	Driver      string        `toml:"driver"`
	Path        string        `toml:"path"`
	Namespace   string        `toml:"namespace"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
	CacheSize   int           `toml:"cache_size"`
}

type History struct {
	Key        string `toml:"key"`
	MaxEntries int    `toml:"max_entries"`
}

type Tree struct {
	MaxDepth int      `toml:"max_depth"`
	Exclude  []string `toml:"exclude"`
}

type Output struct {
	Format string `toml:"format"`
}

type Watch struct {
	Debounce         time.Duration `toml:"debounce"`
	ReloadsPerSecond float64       `toml:"reloads_per_second"`
}

type Observability struct {
	Enabled       bool   `toml:"enabled"`
	Port          int    `toml:"port"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	EnableTracing bool   `toml:"enable_tracing"`
}

const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

var outputFormats = map[string]bool{
	"text":     true,
	"markdown": true,
	"mermaid":  true,
	"dot":      true,
	"json":     true,
	"plantuml": true,
}

package config

import (
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allowOrigins"`
}

// StorageConfig controls the download root. MinFreeSpace is a human
// byte size ("5GB"); submissions are rejected while free space on the
// root's filesystem is below it.
type StorageConfig struct {
	Dir          string `yaml:"dir"`
	MinFreeSpace string `yaml:"minFreeSpace"`
}

// EngineConfig bounds a single yt-dlp invocation.
type EngineConfig struct {
	MaxFileSize          string `yaml:"maxFileSize"`
	SocketTimeoutSeconds int    `yaml:"socketTimeoutSeconds"`
}

// StreamConfig controls the progress-stream poll cadence.
type StreamConfig struct {
	PollIntervalMs int `yaml:"pollIntervalMs"`
}

// RetentionConfig controls how long a retrieved artifact and its job
// record stay around before deferred cleanup removes them.
type RetentionConfig struct {
	CleanupDelaySeconds int `yaml:"cleanupDelaySeconds"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	CORS      CORSConfig      `yaml:"cors"`
	Storage   StorageConfig   `yaml:"storage"`
	Engine    EngineConfig    `yaml:"engine"`
	Stream    StreamConfig    `yaml:"stream"`
	Retention RetentionConfig `yaml:"retention"`
}

func Load(path string) *Config {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open config file: %v", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		log.Fatalf("failed to decode config: %v", err)
	}

	return &cfg
}

// MinFreeBytes returns the configured free-space floor, defaulting to
// 5GB when unset or unparsable.
func (s StorageConfig) MinFreeBytes() uint64 {
	if n, err := humanize.ParseBytes(s.MinFreeSpace); err == nil && n > 0 {
		return n
	}
	return 5 * 1024 * 1024 * 1024
}

// MaxFileSizeBytes returns the per-download size cap, defaulting to 5GB.
func (e EngineConfig) MaxFileSizeBytes() int64 {
	if n, err := humanize.ParseBytes(e.MaxFileSize); err == nil && n > 0 {
		return int64(n)
	}
	return 5 * 1024 * 1024 * 1024
}

// SocketTimeout returns the engine socket timeout, defaulting to 30s.
func (e EngineConfig) SocketTimeout() time.Duration {
	if e.SocketTimeoutSeconds > 0 {
		return time.Duration(e.SocketTimeoutSeconds) * time.Second
	}
	return 30 * time.Second
}

// PollInterval returns the stream poll cadence, defaulting to 500ms.
func (s StreamConfig) PollInterval() time.Duration {
	if s.PollIntervalMs > 0 {
		return time.Duration(s.PollIntervalMs) * time.Millisecond
	}
	return 500 * time.Millisecond
}

// CleanupDelay returns the deferred-cleanup grace period, defaulting
// to 300s.
func (r RetentionConfig) CleanupDelay() time.Duration {
	if r.CleanupDelaySeconds > 0 {
		return time.Duration(r.CleanupDelaySeconds) * time.Second
	}
	return 300 * time.Second
}

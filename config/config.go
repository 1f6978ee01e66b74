// Package config loads the optional YAML defaults shared by the
// coordinator and node binaries, and manages cs_config.txt, the
// well-known file through which the coordinator publishes its address.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the shared endpoint-discovery file written by the
// coordinator on start and read by nodes and clients.
const ConfigFileName = "cs_config.txt"

// Defaults, overridable via the YAML file.
const (
	DefaultCacheCapacity  = 4
	DefaultBeatInterval   = 5 * time.Second
	DefaultSweepInterval  = 30 * time.Second
	DefaultHeartbeatPort  = 3769
	DefaultMetricsPort    = 9469
	DefaultPoolSize       = 10
	DefaultRingSize       = 31
	DefaultHashMultiplier = 99999989
)

// Coordinator holds tunables for the coordinator binary. Zero values are
// replaced by the package defaults in Load.
type Coordinator struct {
	CacheCapacity  int           `yaml:"cache_capacity"`
	BeatInterval   time.Duration `yaml:"beat_interval"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
	HeartbeatPort  int           `yaml:"heartbeat_port"`
	MetricsPort    int           `yaml:"metrics_port"`
	PoolSize       int           `yaml:"pool_size"`
}

// Node holds tunables for the node binary.
type Node struct {
	BeatInterval  time.Duration `yaml:"beat_interval"`
	HeartbeatPort int           `yaml:"heartbeat_port"`
}

// Config is the top-level optional YAML document. Either section may be
// absent; a binary only looks at the section it owns.
type Config struct {
	Coordinator Coordinator `yaml:"coordinator"`
	Node        Node        `yaml:"node"`
}

// Load reads and parses a YAML file at path, if non-empty, and fills in
// defaults for anything left unset. An empty path yields pure defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Coordinator.CacheCapacity == 0 {
		cfg.Coordinator.CacheCapacity = DefaultCacheCapacity
	}
	if cfg.Coordinator.BeatInterval == 0 {
		cfg.Coordinator.BeatInterval = DefaultBeatInterval
	}
	if cfg.Coordinator.SweepInterval == 0 {
		cfg.Coordinator.SweepInterval = DefaultSweepInterval
	}
	if cfg.Coordinator.HeartbeatPort == 0 {
		cfg.Coordinator.HeartbeatPort = DefaultHeartbeatPort
	}
	if cfg.Coordinator.MetricsPort == 0 {
		cfg.Coordinator.MetricsPort = DefaultMetricsPort
	}
	if cfg.Coordinator.PoolSize == 0 {
		cfg.Coordinator.PoolSize = DefaultPoolSize
	}

	if cfg.Node.BeatInterval == 0 {
		cfg.Node.BeatInterval = DefaultBeatInterval
	}
	if cfg.Node.HeartbeatPort == 0 {
		cfg.Node.HeartbeatPort = DefaultHeartbeatPort
	}
}

// WriteEndpoint writes ConfigFileName in the current directory: the
// coordinator's IP on the first line, its port on the second.
func WriteEndpoint(ip string, port int) error {
	f, err := os.Create(ConfigFileName)
	if err != nil {
		return fmt.Errorf("config: write %s: %w", ConfigFileName, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, ip)
	fmt.Fprintln(w, port)
	return w.Flush()
}

// ReadEndpoint reads the coordinator's address published by WriteEndpoint.
func ReadEndpoint() (ip string, port int, err error) {
	f, err := os.Open(ConfigFileName)
	if err != nil {
		return "", 0, fmt.Errorf("config: read %s: %w", ConfigFileName, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return "", 0, fmt.Errorf("config: %s missing ip line", ConfigFileName)
	}
	ip = strings.TrimSpace(scanner.Text())

	if !scanner.Scan() {
		return "", 0, fmt.Errorf("config: %s missing port line", ConfigFileName)
	}
	portStr := strings.TrimSpace(scanner.Text())
	port, err = strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("config: %s bad port %q: %w", ConfigFileName, portStr, err)
	}

	return ip, port, nil
}

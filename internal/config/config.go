// Package config loads the master's YAML configuration: link names,
// domain layout, and the ambient logging/listen settings (SPEC_FULL.md
// AMBIENT STACK).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/c2h5oh/datasize"
	"gopkg.in/yaml.v3"

	"github.com/ecat-io/dataplane-master/internal/logging"
)

// DomainConfig describes one application-defined domain's static shape:
// the FMMU sizes an operator wants wired up for a demo/test run, ordered
// the same way AddFMMU calls would register them (spec §3, §4.1).
type DomainConfig struct {
	Name string `yaml:"name"`
	// OutputBytes and InputBytes list the byte size of each output- and
	// input-direction FMMU this domain maps, kept as separate lists to
	// keep the YAML shape simple. The master registers all outputs first,
	// then all inputs, each in list order.
	OutputBytes []uint32 `yaml:"output_bytes"`
	InputBytes  []uint32 `yaml:"input_bytes"`
}

// Config is the master daemon's top-level configuration.
type Config struct {
	Logging logging.Config `yaml:"logging"`

	// MainInterface and BackupInterface name the two redundant NICs the
	// transport layer sends/receives on (spec §3 Datagram device index).
	MainInterface   string `yaml:"main_interface"`
	BackupInterface string `yaml:"backup_interface"`

	// CycleInterval is the master tick period driving queue()/process()
	// and the request FSM's Exec() (spec §5).
	CycleInterval time.Duration `yaml:"cycle_interval"`

	// MaxPayload overrides the wire's default maximum datagram payload,
	// mainly for test/demo configurations (spec §4.2).
	MaxPayload datasize.ByteSize `yaml:"max_payload"`

	// ListenAddr is the gRPC health/reflection endpoint (SPEC_FULL.md
	// DOMAIN STACK).
	ListenAddr string `yaml:"listen_addr"`

	Domains []DomainConfig `yaml:"domains"`
}

// DefaultConfig returns a two-NIC (main and backup), domain-free configuration
// suitable as a starting point for an operator's YAML file.
func DefaultConfig() *Config {
	return &Config{
		Logging:         logging.DefaultConfig(),
		MainInterface:   "eth0",
		BackupInterface: "eth1",
		CycleInterval:   time.Millisecond,
		MaxPayload:      1486 * datasize.B,
		ListenAddr:      "localhost:50061",
	}
}

// Load reads and parses a YAML configuration file, starting from
// DefaultConfig so unset fields keep sane defaults.
func Load(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

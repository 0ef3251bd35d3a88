// Package config loads the soak harness configuration: compile-time defaults
// from package constants overlaid by an optional JSON file.
package config

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sugawarayuuta/sonnet"

	"isrqueue/constants"
	"isrqueue/irq"
	"isrqueue/ring"
)

// Config describes one harness run.
type Config struct {
	Capacity    int    `json:"capacity"`     // Forward ring slots
	PayloadSize int    `json:"payload_size"` // Bytes per pooled payload
	Entries     int    `json:"entries"`      // Entries to push through
	Core        int    `json:"core"`         // Consumer core, -1 = unpinned
	Lock        string `json:"lock"`         // irq.Kind: mutex | spin
	Journal     string `json:"journal"`      // SQLite path, "" = off
	MetricsAddr string `json:"metrics_addr"` // Prometheus listen addr, "" = off
}

// Default returns the compile-time configuration.
func Default() Config {
	return Config{
		Capacity:    constants.DefaultCapacity,
		PayloadSize: constants.DefaultPayloadSize,
		Entries:     constants.DefaultEntries,
		Core:        constants.DefaultCore,
		Lock:        constants.DefaultLock,
		Journal:     constants.DefaultJournal,
		MetricsAddr: constants.DefaultMetricsAddr,
	}
}

// Load reads path and decodes it over Default. Missing keys keep defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "config: read")
	}
	if err := Decode(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "config: %s", path)
	}
	return cfg, nil
}

// Decode unmarshals data into cfg and validates the result.
func Decode(data []byte, cfg *Config) error {
	if err := sonnet.Unmarshal(data, cfg); err != nil {
		return errors.Wrap(err, "decode")
	}
	return cfg.Validate()
}

// Validate checks ranges that would otherwise panic deep inside the ring.
func (c Config) Validate() error {
	switch {
	case c.Capacity < 1 || c.Capacity > ring.MaxCapacity:
		return errors.Errorf("capacity %d outside [1, %d]", c.Capacity, ring.MaxCapacity)
	case c.PayloadSize < constants.MinPayloadSize || c.PayloadSize > ring.MaxPayload:
		return errors.Errorf("payload_size %d outside [%d, %d]", c.PayloadSize, constants.MinPayloadSize, ring.MaxPayload)
	case c.Entries < 0:
		return errors.Errorf("entries %d is negative", c.Entries)
	}

	switch irq.Kind(c.Lock) {
	case irq.KindMutex, irq.KindSpin:
	default:
		return errors.Errorf("lock %q: want %q or %q", c.Lock, irq.KindMutex, irq.KindSpin)
	}
	return nil
}

// Encode renders cfg as JSON, used by the -dump-config flag.
func Encode(cfg Config) ([]byte, error) {
	return sonnet.Marshal(cfg)
}

package preemptk

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the boot-time constants SPEC_FULL.md §4.8 calls out as
// configurable: table sizes, the round-robin quantum, and the address
// bounds internal/simhw.NewConfiguredAllocator applies to process stacks.
type Config struct {
	TableSize       int `mapstructure:"table_size"`
	TimeSliceMS     int `mapstructure:"time_slice_ms"`
	RingBufferCap   int `mapstructure:"ring_buffer_cap"`
	FdTableSize     int `mapstructure:"fd_table_size"`
	SignalLevels    int `mapstructure:"signal_levels"`
	MaxAddress      uint32 `mapstructure:"max_address"`
	HardwareHoleLo  uint32 `mapstructure:"hardware_hole_lo"`
	HardwareHoleHi  uint32 `mapstructure:"hardware_hole_hi"`
	KernelBase      uint32 `mapstructure:"kernel_base"`
	DefaultEOFChar  byte   `mapstructure:"default_eof_char"`
}

// DefaultConfig matches the constants spec.md fixes for the nucleus: a
// 32-entry process table, a 10ms quantum, a 4-slot keyboard ring buffer,
// 4 file descriptors per process and 32 signal priority levels.
func DefaultConfig() Config {
	return Config{
		TableSize:      32,
		TimeSliceMS:    10,
		RingBufferCap:  4,
		FdTableSize:    4,
		SignalLevels:   32,
		MaxAddress:     0x00FFFFFF,
		HardwareHoleLo: 0x00E00000,
		HardwareHoleHi: 0x00EFFFFF,
		KernelBase:     0x00000000,
		DefaultEOFChar: 0x04,
	}
}

// LoadConfig reads boot configuration from a preemptk.yaml file (if present
// in path) and PREEMPTK_* environment variables, falling back to
// DefaultConfig for anything unset.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("preemptk")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.SetEnvPrefix("PREEMPTK")
	v.AutomaticEnv()

	v.SetDefault("table_size", cfg.TableSize)
	v.SetDefault("time_slice_ms", cfg.TimeSliceMS)
	v.SetDefault("ring_buffer_cap", cfg.RingBufferCap)
	v.SetDefault("fd_table_size", cfg.FdTableSize)
	v.SetDefault("signal_levels", cfg.SignalLevels)
	v.SetDefault("max_address", cfg.MaxAddress)
	v.SetDefault("hardware_hole_lo", cfg.HardwareHoleLo)
	v.SetDefault("hardware_hole_hi", cfg.HardwareHoleHi)
	v.SetDefault("kernel_base", cfg.KernelBase)
	v.SetDefault("default_eof_char", cfg.DefaultEOFChar)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return cfg, wrapErr("load config", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, wrapErr("unmarshal config", err)
	}
	if cfg.TableSize <= 1 {
		return cfg, fmt.Errorf("preemptk: table_size must be > 1, got %d", cfg.TableSize)
	}
	return cfg, nil
}

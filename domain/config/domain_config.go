package config

import (
	"math"
	"time"
)

// DomainConfig holds all configurable canvas rules and timings
type DomainConfig struct {
	// Position allocation
	DefaultOriginX     float64
	DefaultOriginY     float64
	MinSeparation      float64
	RadiusStep         float64
	AngleStep          float64
	MaxSearchRadius    float64
	RandomFallbackSpan float64

	// Grid allocator used by overlap repair
	GridCellSize     float64
	GridColumns      int
	GridRowLimit     int
	GridOriginX      float64
	GridOriginY      float64
	SceneGridCell    float64
	SceneGridColumns int

	// Satellite placement
	SatelliteRadius    float64
	DetailRadius       float64
	DetailAngleStep    float64
	CharacterBaseAngle float64
	ItemBaseAngle      float64
	SettingBaseAngle   float64

	// Undo
	UndoCapacity int
	SettleDelay  time.Duration

	// Sync and backup timings
	SyncDebounce        time.Duration
	BackupInterval      time.Duration
	AutoPromoteInterval time.Duration

	// Act shortcuts
	MaxActShortcut int
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		// Position allocation
		DefaultOriginX:     400,
		DefaultOriginY:     300,
		MinSeparation:      150,
		RadiusStep:         50,
		AngleStep:          math.Pi / 12,
		MaxSearchRadius:    1500,
		RandomFallbackSpan: 300,

		// Grid allocator
		GridCellSize:     200,
		GridColumns:      5,
		GridRowLimit:     50,
		GridOriginX:      100,
		GridOriginY:      100,
		SceneGridCell:    100,
		SceneGridColumns: 5,

		// Satellite placement
		SatelliteRadius:    120,
		DetailRadius:       60,
		DetailAngleStep:    math.Pi / 8,
		CharacterBaseAngle: 0,
		ItemBaseAngle:      math.Pi / 2,
		SettingBaseAngle:   math.Pi,

		// Undo
		UndoCapacity: 10,
		SettleDelay:  150 * time.Millisecond,

		// Sync and backup
		SyncDebounce:        time.Second,
		BackupInterval:      30 * time.Second,
		AutoPromoteInterval: 5 * time.Second,

		MaxActShortcut: 5,
	}
}

// DevelopmentDomainConfig shortens timers for local work
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()
	config.SyncDebounce = 250 * time.Millisecond
	config.BackupInterval = 10 * time.Second
	return config
}

// TestDomainConfig returns configuration suitable for tests
func TestDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()
	config.SyncDebounce = 10 * time.Millisecond
	config.SettleDelay = time.Millisecond
	return config
}

// LoadDomainConfig loads configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "development", "dev", "local":
		return DevelopmentDomainConfig()
	case "test":
		return TestDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

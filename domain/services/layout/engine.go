// Package layout allocates canvas positions, repairs overlapping nodes and
// computes satellite placement for scenes and detail nodes.
package layout

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"storycanvas/domain/config"
	"storycanvas/domain/core/valueobjects"
)

// DetailKind selects the base angle of a detail node fan
type DetailKind int

const (
	DetailCharacter DetailKind = iota
	DetailItem
	DetailSetting
)

// Engine is safe for concurrent use. The random source is only consulted when
// a search is exhausted.
type Engine struct {
	cfg *config.DomainConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine creates a layout engine. A nil rng is replaced with a time-seeded source.
func NewEngine(cfg *config.DomainConfig, rng *rand.Rand) *Engine {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &Engine{cfg: cfg, rng: rng}
}

// NewSeededEngine creates an engine whose fallback positions are reproducible
func NewSeededEngine(cfg *config.DomainConfig, seed uint64) *Engine {
	return NewEngine(cfg, rand.New(rand.NewPCG(seed, seed)))
}

// DefaultOrigin is the position of the first plot point on an empty canvas
func (e *Engine) DefaultOrigin() valueobjects.Position {
	return valueobjects.Position{X: e.cfg.DefaultOriginX, Y: e.cfg.DefaultOriginY}
}

// Allocate finds a free position for a new plot point. Candidates are searched on
// concentric rings around the centroid of existing positions; the first one farther
// than the minimum separation from every existing position wins. When the search
// radius is exhausted a random offset from the centroid is returned.
func (e *Engine) Allocate(existing []valueobjects.Position) valueobjects.Position {
	valid := make([]valueobjects.Position, 0, len(existing))
	for _, p := range existing {
		if p.IsValid() {
			valid = append(valid, p)
		}
	}

	center, ok := valueobjects.Centroid(valid)
	if !ok {
		return e.DefaultOrigin()
	}

	for r := e.cfg.MinSeparation; r <= e.cfg.MaxSearchRadius; r += e.cfg.RadiusStep {
		for step := 0; float64(step)*e.cfg.AngleStep < 2*math.Pi; step++ {
			candidate := center.Polar(r, float64(step)*e.cfg.AngleStep)
			if isClear(candidate, valid, e.cfg.MinSeparation) {
				return candidate
			}
		}
	}

	return e.randomAround(center, e.cfg.RandomFallbackSpan)
}

// SatellitePosition places scene i of n around its plot point
func (e *Engine) SatellitePosition(center valueobjects.Position, i, n int) valueobjects.Position {
	theta := float64(i) * 2 * math.Pi / float64(max(n, 1))
	return center.Polar(e.cfg.SatelliteRadius, theta)
}

// DetailPosition places the i-th detail node of a kind around its scene
func (e *Engine) DetailPosition(center valueobjects.Position, kind DetailKind, i int) valueobjects.Position {
	var base float64
	switch kind {
	case DetailCharacter:
		base = e.cfg.CharacterBaseAngle
	case DetailItem:
		base = e.cfg.ItemBaseAngle
	case DetailSetting:
		base = e.cfg.SettingBaseAngle
	}
	return center.Polar(e.cfg.DetailRadius, base+float64(i)*e.cfg.DetailAngleStep)
}

func (e *Engine) randomAround(center valueobjects.Position, span float64) valueobjects.Position {
	e.mu.Lock()
	dx := (e.rng.Float64()*2 - 1) * span
	dy := (e.rng.Float64()*2 - 1) * span
	e.mu.Unlock()
	return valueobjects.Position{X: center.X + dx, Y: center.Y + dy}
}

func isClear(candidate valueobjects.Position, occupied []valueobjects.Position, minDistance float64) bool {
	for _, p := range occupied {
		if candidate.DistanceTo(p) <= minDistance {
			return false
		}
	}
	return true
}

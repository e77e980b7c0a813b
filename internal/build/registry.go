package build

import (
	"errors"
	"fmt"

	"drone_lab/internal/models"
)

// ErrInvalidPart is returned when a toggle names an unknown part identifier.
var ErrInvalidPart = errors.New("unknown part id")

// MinTWR is the flyability gate: the drone may fly only when the
// thrust-to-weight ratio is strictly above this value.
const MinTWR = 1.2

// Part order matters for display; the frame starts installed.
var defaultParts = []models.Part{
	{ID: "frame", Name: "Frame", Installed: true, WeightGrams: 120},
	{ID: "motors", Name: "Brushless Motors", WeightGrams: 190, ThrustGrams: 2400},
	{ID: "esc", Name: "4-in-1 ESC", WeightGrams: 35},
	{ID: "flight_controller", Name: "Flight Controller", WeightGrams: 28},
	{ID: "battery", Name: "LiPo Battery", WeightGrams: 310},
	{ID: "propellers", Name: "Propellers", WeightGrams: 52},
	{ID: "camera", Name: "FPV Camera", WeightGrams: 85},
	{ID: "wings", Name: "Fixed Wings", WeightGrams: 260},
}

// Registry tracks which parts are installed on the current build. Not
// concurrency-safe on its own; the owning engine serializes access.
type Registry struct {
	variant models.Variant
	parts   []models.Part
	index   map[string]int
}

func NewRegistry() *Registry {
	return NewRegistryFromParts(defaultParts)
}

// NewRegistryFromParts builds a registry over a custom part catalog, e.g. an
// alternate airframe kit.
func NewRegistryFromParts(parts []models.Part) *Registry {
	r := &Registry{
		variant: models.VariantQuad,
		parts:   make([]models.Part, len(parts)),
		index:   make(map[string]int, len(parts)),
	}
	copy(r.parts, parts)
	for i, p := range r.parts {
		r.index[p.ID] = i
	}
	return r
}

// Toggle flips the installed flag of a known part. It never touches drone
// state: removing a part does not disarm a flying drone.
func (r *Registry) Toggle(partID string) (models.Part, error) {
	i, ok := r.index[partID]
	if !ok {
		return models.Part{}, fmt.Errorf("%w: %q", ErrInvalidPart, partID)
	}
	r.parts[i].Installed = !r.parts[i].Installed
	return r.parts[i], nil
}

// SetVariant switches between quad and fixed-wing airframes.
func (r *Registry) SetVariant(v models.Variant) error {
	switch v {
	case models.VariantQuad, models.VariantFixedWing:
		r.variant = v
		return nil
	default:
		return fmt.Errorf("unknown variant %q", v)
	}
}

func (r *Registry) Variant() models.Variant {
	return r.variant
}

// Parts returns a copy of the part table.
func (r *Registry) Parts() []models.Part {
	out := make([]models.Part, len(r.parts))
	copy(out, r.parts)
	return out
}

func (r *Registry) mandatory(id string) bool {
	if id == "wings" {
		return r.variant == models.VariantFixedWing
	}
	return true
}

// Summary derives the build summary from the current registry. It is a pure
// function of registry contents and is recomputed on every call; any toggle
// invalidates previous results, so nothing is cached.
func (r *Registry) Summary() models.BuildSummary {
	s := models.BuildSummary{Variant: r.variant}

	installed := make(map[string]bool, len(r.parts))
	for _, p := range r.parts {
		if !p.Installed {
			if r.mandatory(p.ID) {
				s.MissingParts = append(s.MissingParts, p.ID)
			}
			continue
		}
		installed[p.ID] = true
		s.TotalWeightGrams += p.WeightGrams
		s.MaxThrustGrams += p.ThrustGrams
	}

	// Thrust counts only once the power train is complete.
	if !installed["motors"] || !installed["propellers"] || !installed["battery"] {
		s.MaxThrustGrams = 0
	}
	if s.TotalWeightGrams > 0 {
		s.TWR = s.MaxThrustGrams / s.TotalWeightGrams
	}
	s.IsFullyBuilt = len(s.MissingParts) == 0
	s.CanFly = s.TWR > MinTWR
	return s
}

package sim

import (
	"math"

	"drone_lab/internal/models"
)

// DefaultCaptureRadius is the hoop acquisition distance in scene units.
const DefaultCaptureRadius = 1.5

// defaultHoopTarget matches the hoop placed in the simulator scene.
var defaultHoopTarget = models.Vec3{X: 3, Y: 2, Z: 4}

// MissionEvaluator tracks the active mission. The hoop challenge is one-shot:
// once captured it resets to free flight and no further checks fire until the
// mission is selected again.
type MissionEvaluator struct {
	active models.Mission
	target models.Vec3
	radius float64
}

func NewMissionEvaluator(radius float64) *MissionEvaluator {
	if radius <= 0 {
		radius = DefaultCaptureRadius
	}
	return &MissionEvaluator{active: models.MissionFreeFlight, target: defaultHoopTarget, radius: radius}
}

func (m *MissionEvaluator) Active() models.Mission {
	return m.active
}

func (m *MissionEvaluator) Target() models.Vec3 {
	return m.target
}

// Select switches the active mission. Re-selecting the hoop challenge re-arms
// the capture check.
func (m *MissionEvaluator) Select(mission models.Mission) bool {
	switch mission {
	case models.MissionFreeFlight, models.MissionHoopChallenge:
		m.active = mission
		return true
	default:
		return false
	}
}

// Check tests the position against the capture volume after an executed
// command. Returns true exactly once per hoop-challenge selection.
func (m *MissionEvaluator) Check(pos models.Vec3) bool {
	if m.active != models.MissionHoopChallenge {
		return false
	}
	dx := pos.X - m.target.X
	dy := pos.Y - m.target.Y
	dz := pos.Z - m.target.Z
	if math.Sqrt(dx*dx+dy*dy+dz*dz) >= m.radius {
		return false
	}
	m.active = models.MissionFreeFlight
	return true
}

package sim

import (
	"math"

	"drone_lab/internal/models"
)

// Flavoring constants. Drift is a deliberately uncompensated disturbance:
// neither the interpreter nor manual control corrects for it.
const (
	windDriftFactor = 0.5
	windDeadband    = 0.1 // m/s

	lowGainThreshold  = 0.8
	highGainThreshold = 1.2

	slowWobbleHz  = 1.2
	fastWobbleHz  = 6.0
	slowWobbleAmp = 0.35 // rad per unit of gain deviation
	fastWobbleAmp = 0.18
)

// Flavoring applies the per-tick cosmetic physics: wind drift on position and
// PID-gain wobble on the visual tilt. It never writes armed, crashed, or
// throttle. The oscillator phase is the only state it keeps.
type Flavoring struct {
	phase float64
}

// Step perturbs the drone state in place for one tick of dt seconds. No-op
// unless the drone is airborne and not crashed.
func (f *Flavoring) Step(st *models.DroneState, env models.Environment, dt float64) {
	if !st.Armed || st.Crashed {
		return
	}

	if math.Hypot(env.WindX, env.WindZ) > windDeadband {
		st.Position.X += env.WindX * windDriftFactor * dt
		st.Position.Z += env.WindZ * windDriftFactor * dt
	}

	switch {
	case env.PGain < lowGainThreshold:
		// Sluggish gains: slow oscillation, amplitude grows as gain drops.
		amp := (lowGainThreshold - env.PGain) * slowWobbleAmp
		f.phase += 2 * math.Pi * slowWobbleHz * dt
		st.Roll = amp * math.Sin(f.phase)
		st.Pitch = amp * math.Sin(f.phase*0.8)
	case env.PGain > highGainThreshold:
		// Hot gains: fast oscillation, amplitude grows with gain.
		amp := (env.PGain - highGainThreshold) * fastWobbleAmp
		f.phase += 2 * math.Pi * fastWobbleHz * dt
		st.Roll = amp * math.Sin(f.phase)
		st.Pitch = amp * math.Sin(f.phase*0.8)
	default:
		st.Roll = 0
		st.Pitch = 0
		f.phase = 0
	}
}

// WindDriftMagnitude is the displayed drift speed for the current wind.
func WindDriftMagnitude(env models.Environment) float64 {
	mag := math.Hypot(env.WindX, env.WindZ)
	if mag <= windDeadband {
		return 0
	}
	return mag * windDriftFactor
}

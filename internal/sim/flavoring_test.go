package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"drone_lab/internal/models"
)

func airborne() models.DroneState {
	return models.DroneState{
		Position: models.Vec3{Y: 2},
		Armed:    true,
		Throttle: throttleHover,
	}
}

func TestWindDriftAccumulates(t *testing.T) {
	var f Flavoring
	st := airborne()
	env := models.Environment{WindX: 2, PGain: 1.0}

	f.Step(&st, env, 0.1)
	assert.InDelta(t, 2*windDriftFactor*0.1, st.Position.X, 1e-9)
	assert.InDelta(t, 0, st.Position.Z, 1e-9)

	prev := st.Position.X
	for i := 0; i < 10; i++ {
		f.Step(&st, env, 0.1)
		assert.Greater(t, st.Position.X, prev, "drift must be monotonic under constant wind")
		prev = st.Position.X
	}
}

func TestWindDeadband(t *testing.T) {
	var f Flavoring
	st := airborne()

	f.Step(&st, models.Environment{WindX: 0.05, WindZ: 0.05, PGain: 1.0}, 0.1)
	assert.Equal(t, 0.0, st.Position.X)
	assert.Equal(t, 0.0, st.Position.Z)
}

func TestZeroWindLeavesPositionUntouched(t *testing.T) {
	var f Flavoring
	st := airborne()
	st.Position.X = 1.5

	for i := 0; i < 20; i++ {
		f.Step(&st, models.Environment{PGain: 1.0}, 0.05)
	}
	assert.Equal(t, 1.5, st.Position.X)
}

func TestFlavoringOnlyWhileAirborne(t *testing.T) {
	var f Flavoring
	env := models.Environment{WindX: 3, PGain: 2.5}

	grounded := models.DroneState{}
	f.Step(&grounded, env, 0.1)
	assert.Equal(t, models.DroneState{}, grounded)

	crashed := airborne()
	crashed.Crashed = true
	before := crashed
	f.Step(&crashed, env, 0.1)
	assert.Equal(t, before, crashed)
}

func TestWobbleBands(t *testing.T) {
	env := models.Environment{PGain: 1.0}

	// Nominal gain: tilt resets to zero.
	var f Flavoring
	st := airborne()
	st.Roll = 0.2
	f.Step(&st, env, 0.1)
	assert.Equal(t, 0.0, st.Roll)
	assert.Equal(t, 0.0, st.Pitch)

	// Low gain wobbles, and lower gain wobbles harder.
	maxTilt := func(p float64) float64 {
		var f Flavoring
		st := airborne()
		peak := 0.0
		for i := 0; i < 200; i++ {
			f.Step(&st, models.Environment{PGain: p}, 0.01)
			if r := st.Roll; r > peak {
				peak = r
			} else if -r > peak {
				peak = -r
			}
		}
		return peak
	}
	assert.Greater(t, maxTilt(0.5), 0.0)
	assert.Greater(t, maxTilt(0.3), maxTilt(0.6))

	// High gain wobbles, growing with gain.
	assert.Greater(t, maxTilt(2.0), 0.0)
	assert.Greater(t, maxTilt(2.4), maxTilt(1.5))
}

func TestWindDriftMagnitude(t *testing.T) {
	assert.Equal(t, 0.0, WindDriftMagnitude(models.Environment{WindX: 0.05}))
	assert.InDelta(t, 2.5, WindDriftMagnitude(models.Environment{WindX: 5}), 1e-9)
}

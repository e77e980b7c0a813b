package sim

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"drone_lab/internal/build"
	"drone_lab/internal/models"
	"drone_lab/internal/script"
)

// Cosmetic throttle levels and settle durations. Settle time models transit
// and stabilization between commands, not real dynamics.
const (
	throttleTakeoff = 0.9
	throttleCruise  = 0.65
	throttleHover   = 0.5
	throttleLand    = 0.2

	settleTakeoff  = 1500 * time.Millisecond
	settleLand     = 1500 * time.Millisecond
	settleWaypoint = 1500 * time.Millisecond
	settleMove     = 1000 * time.Millisecond
	settleYaw      = 400 * time.Millisecond

	takeoffAltitudeM = 2.0
	manualStepM      = 1.0
	manualYawDeg     = 15.0

	// Manual actions hold an elevated throttle this long before decaying
	// back to baseline; a newer action simply reschedules the decay.
	throttleRevertDelay = 900 * time.Millisecond

	packVoltageFull = 12.6
	packVoltageSag  = 0.9

	defaultTickInterval = 50 * time.Millisecond
)

// ManualActions is the manual override vocabulary, in display order.
var ManualActions = []string{
	"takeoff", "land",
	"forward", "backward", "left", "right",
	"yaw_left", "yaw_right",
}

// DefaultKeyBindings maps key identifiers to manual actions. Overridable via
// the keys.* config table.
func DefaultKeyBindings() map[string]string {
	return map[string]string{
		"t": "takeoff",
		"l": "land",
		"w": "forward",
		"s": "backward",
		"a": "left",
		"d": "right",
		"q": "yaw_left",
		"e": "yaw_right",
	}
}

// Options configures a simulator session.
type Options struct {
	Clock         Clock
	TickInterval  time.Duration
	CaptureRadius float64
	KeyBindings   map[string]string
	Environment   models.Environment
}

// Engine owns the simulator session: build registry, drone state, environment,
// mission, and flight log. All access is serialized through one mutex; the
// script interpreter runs on its own goroutine but mutates state only under
// that mutex, and manual control is rejected while it runs.
type Engine struct {
	mu    sync.Mutex
	log   zerolog.Logger
	clock Clock

	registry *build.Registry
	drone    models.DroneState
	env      models.Environment
	mission  *MissionEvaluator
	flight   *FlightLog
	flavor   Flavoring

	status    models.InterpreterState
	runCancel context.CancelFunc
	runDone   chan struct{}

	bindings map[string]string
	keysDown map[string]bool
	revertAt time.Time

	tick         int
	tickInterval time.Duration
	tickRunning  bool
	tickCancel   context.CancelFunc
}

func NewEngine(log zerolog.Logger, opts Options) *Engine {
	clock := opts.Clock
	if clock == nil {
		clock = NewClock()
	}
	interval := opts.TickInterval
	if interval <= 0 {
		interval = defaultTickInterval
	}
	env := opts.Environment
	if env.PGain == 0 {
		env.PGain = 1.0
	}
	bindings := opts.KeyBindings
	if bindings == nil {
		bindings = DefaultKeyBindings()
	}
	return &Engine{
		log:          log,
		clock:        clock,
		registry:     build.NewRegistry(),
		env:          clampEnvironment(env),
		mission:      NewMissionEvaluator(opts.CaptureRadius),
		flight:       NewFlightLog(log, clock),
		status:       models.InterpreterIdle,
		bindings:     bindings,
		keysDown:     make(map[string]bool),
		tickInterval: interval,
	}
}

// Log exposes the flight log for the API layer.
func (e *Engine) Log() *FlightLog {
	return e.flight
}

// ======================
// build registry surface

// TogglePart flips a part's installed flag. Rejected while a script runs so
// the flyability gate cannot change under the interpreter.
func (e *Engine) TogglePart(partID string) (models.Part, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status == models.InterpreterRunning {
		e.flight.AppendError(ErrBusy)
		return models.Part{}, ErrBusy
	}
	p, err := e.registry.Toggle(partID)
	if err != nil {
		e.flight.AppendError(err)
		return models.Part{}, err
	}
	if p.Installed {
		e.flight.Appendf("Installed %s", p.Name)
	} else {
		e.flight.Appendf("Removed %s", p.Name)
	}
	return p, nil
}

// SetVariant switches the airframe variant, which changes which parts the
// flyability gate considers mandatory.
func (e *Engine) SetVariant(v models.Variant) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status == models.InterpreterRunning {
		e.flight.AppendError(ErrBusy)
		return ErrBusy
	}
	if err := e.registry.SetVariant(v); err != nil {
		return err
	}
	e.flight.Appendf("Airframe variant set to %s", v)
	return nil
}

func (e *Engine) Parts() []models.Part {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Parts()
}

func (e *Engine) BuildSummary() models.BuildSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Summary()
}

// preflightLocked is the flyability gate shared by the interpreter and the
// manual controller, checked once at invocation.
func (e *Engine) preflightLocked() error {
	s := e.registry.Summary()
	if !s.IsFullyBuilt {
		return ErrAssemblyIncomplete
	}
	if !s.CanFly {
		return ErrInsufficientThrust
	}
	if e.drone.Crashed {
		return ErrAlreadyCrashed
	}
	return nil
}

// ======================
// script interpreter

// RunScript parses the script and starts sequential execution on a background
// goroutine. Only one run may be active; preconditions are checked once here
// and a rejection leaves drone state untouched.
func (e *Engine) RunScript(text string) error {
	cmds := script.Parse(text)

	e.mu.Lock()
	if e.status == models.InterpreterRunning {
		e.mu.Unlock()
		e.flight.AppendError(ErrBusy)
		return ErrBusy
	}
	if err := e.preflightLocked(); err != nil {
		e.mu.Unlock()
		e.flight.AppendError(err)
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.status = models.InterpreterRunning
	e.runCancel = cancel
	e.runDone = done
	e.mu.Unlock()

	e.flight.Appendf("Execution started: %d commands", len(cmds))
	go e.runLoop(ctx, done, cmds)
	return nil
}

func (e *Engine) runLoop(ctx context.Context, done chan struct{}, cmds []script.Command) {
	defer close(done)
	for _, cmd := range cmds {
		// Cancellation is observed at command boundaries; a command that
		// already started runs to completion.
		if ctx.Err() != nil {
			return
		}
		e.execute(ctx, cmd)
		if e.checkMission() {
			e.flight.Append("Mission complete: hoop captured")
		}
	}
	if ctx.Err() != nil {
		return
	}
	e.mu.Lock()
	if e.status == models.InterpreterRunning {
		e.status = models.InterpreterIdle
		e.runCancel = nil
		e.runDone = nil
	}
	e.mu.Unlock()
	e.flight.Append("Execution finished")
}

func (e *Engine) execute(ctx context.Context, cmd script.Command) {
	e.flight.Appendf("Executing: %s", cmd.Raw)
	switch cmd.Kind {
	case script.KindTakeoff:
		e.withState(func(st *models.DroneState) {
			st.Throttle = throttleTakeoff
			st.Position.Y = takeoffAltitudeM
			st.Armed = true
		})
		e.clock.Sleep(ctx, settleTakeoff)
		e.setThrottle(throttleHover)
	case script.KindLand:
		e.setThrottle(throttleLand)
		e.clock.Sleep(ctx, settleLand)
		e.withState(func(st *models.DroneState) {
			st.Position.Y = 0
			st.Armed = false
			st.Throttle = 0
			st.Roll = 0
			st.Pitch = 0
		})
	case script.KindForward:
		e.executeMove(ctx, cmd.Value, 0)
	case script.KindBackward:
		e.executeMove(ctx, -cmd.Value, 0)
	case script.KindLeft:
		e.executeMove(ctx, 0, -cmd.Value)
	case script.KindRight:
		e.executeMove(ctx, 0, cmd.Value)
	case script.KindYaw:
		e.withState(func(st *models.DroneState) {
			st.Heading = wrapHeading(st.Heading + cmd.Value*math.Pi/180)
		})
		e.clock.Sleep(ctx, settleYaw)
	case script.KindHover:
		// Suspends without moving; flavoring keeps ticking meanwhile.
		e.clock.Sleep(ctx, time.Duration(cmd.Value*float64(time.Second)))
	case script.KindWaypoint:
		e.withState(func(st *models.DroneState) {
			st.Throttle = throttleCruise
			st.Position.X = cmd.X
			st.Position.Z = cmd.Z
		})
		e.clock.Sleep(ctx, settleWaypoint)
		e.setThrottle(throttleHover)
	case script.KindTelemetry:
		t := e.Telemetry()
		e.flight.Appendf("Telemetry: altitude %.1f m, battery %.2f V", t.AltitudeM, t.Voltage)
	default:
		e.flight.Appendf("Unknown command ignored: %q (line %d)", cmd.Raw, cmd.Line)
	}
}

// executeMove displaces the drone in its heading-relative frame and waits the
// lateral settle duration.
func (e *Engine) executeMove(ctx context.Context, forward, right float64) {
	e.withState(func(st *models.DroneState) {
		st.Throttle = throttleCruise
		moveFrameRelative(st, forward, right)
	})
	e.clock.Sleep(ctx, settleMove)
	e.setThrottle(throttleHover)
}

// Stop cancels any active run, waits for the command in flight to settle, and
// unconditionally resets drone state to its initial values, clearing crashed.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel := e.runCancel
	done := e.runDone
	wasRunning := e.status == models.InterpreterRunning
	e.runCancel = nil
	e.runDone = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	e.mu.Lock()
	e.drone = models.DroneState{}
	e.revertAt = time.Time{}
	e.status = models.InterpreterStopped
	e.mu.Unlock()

	if wasRunning {
		e.flight.Append("Execution stopped, state reset")
	} else {
		e.flight.Append("State reset")
	}
}

// InterpreterState reports the current run state.
func (e *Engine) InterpreterState() models.InterpreterState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Engine) checkMission() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mission.Check(e.drone.Position)
}

// ======================
// manual override

// Apply executes one manual action with fixed magnitude, guarded by the same
// flyability gate as the interpreter. Invocable repeatedly, but rejected while
// a script run holds the drone.
func (e *Engine) Apply(action string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.applyLocked(action)
}

func (e *Engine) applyLocked(action string) error {
	if e.status == models.InterpreterRunning {
		e.flight.AppendError(ErrBusy)
		return ErrBusy
	}
	if err := e.preflightLocked(); err != nil {
		e.flight.AppendError(err)
		return err
	}

	st := &e.drone
	elevated := true
	switch action {
	case "takeoff":
		st.Throttle = throttleTakeoff
		st.Position.Y = takeoffAltitudeM
		st.Armed = true
	case "land":
		st.Throttle = throttleLand
		st.Position.Y = 0
		st.Armed = false
		st.Roll = 0
		st.Pitch = 0
	case "forward":
		st.Throttle = throttleCruise
		moveFrameRelative(st, manualStepM, 0)
	case "backward":
		st.Throttle = throttleCruise
		moveFrameRelative(st, -manualStepM, 0)
	case "left":
		st.Throttle = throttleCruise
		moveFrameRelative(st, 0, -manualStepM)
	case "right":
		st.Throttle = throttleCruise
		moveFrameRelative(st, 0, manualStepM)
	case "yaw_left":
		st.Heading = wrapHeading(st.Heading - manualYawDeg*math.Pi/180)
		elevated = false
	case "yaw_right":
		st.Heading = wrapHeading(st.Heading + manualYawDeg*math.Pi/180)
		elevated = false
	default:
		err := fmt.Errorf("%w: %q", ErrUnknownAction, action)
		e.flight.AppendError(err)
		return err
	}
	if elevated {
		e.revertAt = e.clock.Now().Add(throttleRevertDelay)
	}
	e.flight.Appendf("Manual: %s", action)
	return nil
}

// HandleKey feeds a key transition through the binding table. Only the
// down-edge triggers an action: holding a key (OS auto-repeat) does not
// re-fire until the key is released. Unbound keys are ignored.
func (e *Engine) HandleKey(key string, pressed bool) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !pressed {
		delete(e.keysDown, key)
		return "", nil
	}
	if e.keysDown[key] {
		return "", nil
	}
	e.keysDown[key] = true
	action, ok := e.bindings[key]
	if !ok {
		return "", nil
	}
	return action, e.applyLocked(action)
}

// KeyBindings returns a copy of the key binding table.
func (e *Engine) KeyBindings() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]string, len(e.bindings))
	for k, v := range e.bindings {
		out[k] = v
	}
	return out
}

// ======================
// tick loop

// StartTicking runs the per-frame flavoring loop on a goroutine until paused.
func (e *Engine) StartTicking() {
	e.mu.Lock()
	if e.tickRunning {
		e.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.tickRunning = true
	e.tickCancel = cancel
	interval := e.tickInterval
	e.mu.Unlock()
	e.log.Debug().Dur("interval", interval).Msg("tick loop started")

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		last := e.clock.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				now := e.clock.Now()
				e.AdvanceTick(now.Sub(last).Seconds())
				last = now
			}
		}
	}()
}

// PauseTicking stops the flavoring loop.
func (e *Engine) PauseTicking() {
	e.mu.Lock()
	cancel := e.tickCancel
	e.tickCancel = nil
	e.tickRunning = false
	e.mu.Unlock()
	if cancel != nil {
		cancel()
		e.log.Debug().Msg("tick loop paused")
	}
}

// AdvanceTick applies one flavoring step of dt seconds and settles any
// pending manual throttle decay. Exposed so a host without a timer (or a
// test) can drive ticks explicitly.
func (e *Engine) AdvanceTick(dt float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.flavor.Step(&e.drone, e.env, dt)
	if !e.revertAt.IsZero() && !e.clock.Now().Before(e.revertAt) {
		if e.drone.Armed {
			e.drone.Throttle = throttleHover
		} else {
			e.drone.Throttle = 0
		}
		e.revertAt = time.Time{}
	}
	e.tick++
}

// ======================
// environment, mission, read models

// SetEnvironment clamps and applies new environment parameters.
func (e *Engine) SetEnvironment(env models.Environment) models.Environment {
	env = clampEnvironment(env)
	e.mu.Lock()
	e.env = env
	e.mu.Unlock()
	e.flight.Appendf("Environment: wind (%.1f, %.1f) m/s, p-gain %.2f", env.WindX, env.WindZ, env.PGain)
	return env
}

func (e *Engine) Environment() models.Environment {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.env
}

// SelectMission switches the mission mode; re-selecting the hoop challenge
// re-arms its one-shot capture check.
func (e *Engine) SelectMission(m models.Mission) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.mission.Select(m) {
		return fmt.Errorf("unknown mission %q", m)
	}
	e.flight.Appendf("Mission selected: %s", m)
	return nil
}

func (e *Engine) Mission() models.Mission {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mission.Active()
}

// DroneState returns a snapshot of the drone.
func (e *Engine) DroneState() models.DroneState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drone
}

// Telemetry computes the display read model from current state.
func (e *Engine) Telemetry() models.Telemetry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return models.Telemetry{
		Armed:              e.drone.Armed,
		AltitudeM:          e.drone.Position.Y,
		HeadingDeg:         e.drone.Heading * 180 / math.Pi,
		Voltage:            packVoltageFull - packVoltageSag*e.drone.Throttle,
		ThrottlePct:        e.drone.Throttle * 100,
		WindDriftMagnitude: WindDriftMagnitude(e.env),
		Crashed:            e.drone.Crashed,
		Mission:            e.mission.Active(),
	}
}

// State returns the full session snapshot for the frontend.
func (e *Engine) State() models.SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return models.SessionState{
		Drone:       e.drone,
		Environment: e.env,
		Mission:     e.mission.Active(),
		Interpreter: e.status,
		Build:       e.registry.Summary(),
		Tick:        e.tick,
		TickRunning: e.tickRunning,
	}
}

// ======================
// helpers

func (e *Engine) withState(fn func(st *models.DroneState)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.drone)
}

func (e *Engine) setThrottle(v float64) {
	e.withState(func(st *models.DroneState) {
		st.Throttle = v
	})
}

// moveFrameRelative displaces the position in the heading-rotated basis:
// forward along the nose, right along the starboard side.
func moveFrameRelative(st *models.DroneState, forward, right float64) {
	sinH, cosH := math.Sin(st.Heading), math.Cos(st.Heading)
	st.Position.X += forward*sinH + right*cosH
	st.Position.Z += forward*cosH - right*sinH
}

func wrapHeading(h float64) float64 {
	h = math.Mod(h, 2*math.Pi)
	if h < 0 {
		h += 2 * math.Pi
	}
	return h
}

func clampEnvironment(env models.Environment) models.Environment {
	env.WindX = clamp(env.WindX, -5, 5)
	env.WindZ = clamp(env.WindZ, -5, 5)
	env.PGain = clamp(env.PGain, 0.1, 2.5)
	return env
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

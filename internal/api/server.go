package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"drone_lab/internal/models"
	"drone_lab/internal/sim"
)

type Server struct {
	engine *sim.Engine
}

// New constructs the HTTP router wired to the simulator engine.
func New(engine *sim.Engine) http.Handler {
	s := &Server{engine: engine}
	r := chi.NewRouter()
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/state", s.handleState)
	r.Get("/telemetry", s.handleTelemetry)
	r.Get("/build", s.handleBuild)
	r.Get("/log", s.handleLog)
	r.Get("/keys", s.handleKeys)
	r.Post("/build/toggle", s.handleToggle)
	r.Post("/build/variant", s.handleVariant)
	r.Post("/script/run", s.handleScriptRun)
	r.Post("/script/stop", s.handleScriptStop)
	r.Post("/manual", s.handleManual)
	r.Post("/manual/key", s.handleManualKey)
	r.Post("/env", s.handleEnv)
	r.Post("/mission", s.handleMission)
	r.Post("/sim/start", s.handleSimStart)
	r.Post("/sim/pause", s.handleSimPause)
	r.Post("/tick", s.handleTick)

	return r
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.engine.State())
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.engine.Telemetry())
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"parts":   s.engine.Parts(),
		"summary": s.engine.BuildSummary(),
	})
}

// handleLog returns flight log entries after the given sequence number, so the
// frontend can poll incrementally with ?since=<last seen seq>.
func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	since := 0
	if raw := r.URL.Query().Get("since"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "bad since parameter")
			return
		}
		since = v
	}
	writeJSON(w, s.engine.Log().Since(since))
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"bindings": s.engine.KeyBindings(),
		"actions":  sim.ManualActions,
	})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PartID string `json:"part_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PartID == "" {
		writeJSONError(w, http.StatusBadRequest, "bad request")
		return
	}
	part, err := s.engine.TogglePart(req.PartID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"part":    part,
		"summary": s.engine.BuildSummary(),
	})
}

func (s *Server) handleVariant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Variant string `json:"variant"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Variant == "" {
		writeJSONError(w, http.StatusBadRequest, "bad request")
		return
	}
	if err := s.engine.SetVariant(models.Variant(req.Variant)); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, s.engine.BuildSummary())
}

func (s *Server) handleScriptRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Script string `json:"script"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "bad request")
		return
	}
	if err := s.engine.RunScript(req.Script); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, s.engine.State())
}

func (s *Server) handleScriptStop(w http.ResponseWriter, r *http.Request) {
	s.engine.Stop()
	writeJSON(w, s.engine.State())
}

func (s *Server) handleManual(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Action == "" {
		writeJSONError(w, http.StatusBadRequest, "bad request")
		return
	}
	if err := s.engine.Apply(req.Action); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, s.engine.Telemetry())
}

func (s *Server) handleManualKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key     string `json:"key"`
		Pressed bool   `json:"pressed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		writeJSONError(w, http.StatusBadRequest, "bad request")
		return
	}
	action, err := s.engine.HandleKey(req.Key, req.Pressed)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"action":    action,
		"telemetry": s.engine.Telemetry(),
	})
}

func (s *Server) handleEnv(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WindX float64 `json:"wind_x"`
		WindZ float64 `json:"wind_z"`
		PGain float64 `json:"p_gain"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "bad request")
		return
	}
	env := s.engine.SetEnvironment(models.Environment{
		WindX: req.WindX,
		WindZ: req.WindZ,
		PGain: req.PGain,
	})
	writeJSON(w, env)
}

func (s *Server) handleMission(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mission string `json:"mission"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Mission == "" {
		writeJSONError(w, http.StatusBadRequest, "bad request")
		return
	}
	if err := s.engine.SelectMission(models.Mission(req.Mission)); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, s.engine.State())
}

func (s *Server) handleSimStart(w http.ResponseWriter, r *http.Request) {
	s.engine.StartTicking()
	writeJSON(w, s.engine.State())
}

func (s *Server) handleSimPause(w http.ResponseWriter, r *http.Request) {
	s.engine.PauseTicking()
	writeJSON(w, s.engine.State())
}

// handleTick advances one explicit tick, for hosts that drive frames
// themselves instead of running the internal loop.
func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DtSeconds float64 `json:"dt_seconds"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.DtSeconds <= 0 {
		req.DtSeconds = 0.05
	}
	s.engine.AdvanceTick(req.DtSeconds)
	writeJSON(w, s.engine.State())
}

// ===== helpers =====

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	if msg == "" {
		msg = http.StatusText(status)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeEngineError maps engine errors to HTTP statuses: a busy interpreter or
// failed flight precondition is a state conflict, everything else is a bad
// request.
func writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, sim.ErrBusy),
		errors.Is(err, sim.ErrAssemblyIncomplete),
		errors.Is(err, sim.ErrInsufficientThrust),
		errors.Is(err, sim.ErrAlreadyCrashed):
		status = http.StatusConflict
	}
	writeJSONError(w, status, err.Error())
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

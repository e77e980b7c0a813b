package main

import (
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"drone_lab/internal/api"
	"drone_lab/internal/config"
	"drone_lab/internal/sim"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(level)
	} else {
		log.Warn().Str("logLevel", cfg.LogLevel).Msg("unknown log level, keeping info")
	}

	engine := sim.NewEngine(log, sim.Options{
		TickInterval:  cfg.TickInterval,
		CaptureRadius: cfg.CaptureRadius,
		KeyBindings:   cfg.KeyBindings,
		Environment:   cfg.Environment,
	})
	engine.StartTicking()

	handler := api.New(engine)

	port := cfg.Port
	if p := os.Getenv("PORT"); p != "" {
		port = p
	}
	log.Info().Str("port", port).Msg("server listening")
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

package main

import (
	"flag"
	"os"
	"runtime"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kestrelchess/kestrel/internal/evalbuilder"
	"github.com/kestrelchess/kestrel/pkg/engine"
	"github.com/kestrelchess/kestrel/pkg/uci"
)

const (
	name   = "Kestrel"
	author = "the Kestrel authors"
)

var (
	versionName = "dev"
	flgEval     string
	flgEvalFile string
)

func main() {
	flag.StringVar(&flgEval, "eval", envOr("KESTREL_EVAL", ""), "evaluation function (nnue, material)")
	flag.StringVar(&flgEvalFile, "evalfile", envOr("KESTREL_EVAL_FILE", "kestrel.knet"), "network weights file")
	flag.Parse()

	var logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Str("engine", name).Logger()
	log.Logger = logger

	logger.Info().
		Str("version", versionName).
		Str("runtime", runtime.Version()).
		Int("numCPU", runtime.NumCPU()).
		Msg("starting")

	var eng = engine.NewEngine(evalbuilder.Get(flgEval, flgEvalFile))

	var syzygyPath string
	var protocol = uci.New(name, author, versionName, eng,
		[]uci.Option{
			&uci.IntOption{Name: "Hash", Min: 4, Max: 1 << 16, Value: &eng.Hash},
			&uci.IntOption{Name: "Threads", Min: 1, Max: runtime.NumCPU(), Value: &eng.Threads},
			&uci.IntOption{Name: "MultiPV", Min: 1, Max: 64, Value: &eng.MultiPV},
			&uci.StringOption{Name: "EvalFile", Value: &flgEvalFile, OnSet: func(path string) error {
				eng.SetEvalBuilder(evalbuilder.Get(flgEval, path))
				return nil
			}},
			&uci.StringOption{Name: "SyzygyPath", Value: &syzygyPath, OnSet: func(path string) error {
				// tablebase probing is not wired up; absence of
				// information is a legal probe result
				logger.Warn().Str("path", path).Msg("syzygy tablebases not supported, ignoring")
				return nil
			}},
		},
	)
	protocol.Run(logger)
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

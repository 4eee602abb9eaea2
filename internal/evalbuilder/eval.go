package evalbuilder

import (
	"fmt"

	"github.com/rs/zerolog/log"

	material "github.com/kestrelchess/kestrel/pkg/eval/material"
	nnue "github.com/kestrelchess/kestrel/pkg/eval/nnue"
)

// Get resolves an evaluator builder by name. The default is the
// network evaluator when a weight file loads and verifies; otherwise
// the engine falls back to the handcrafted material evaluator rather
// than refuse to start.
func Get(key, evalFile string) func() interface{} {
	return func() interface{} {
		switch key {
		case "", "nnue":
			var weights, err = nnue.LoadWeightsFile(evalFile)
			if err != nil {
				if key == "nnue" {
					panic(fmt.Errorf("load nnue weights: %w", err))
				}
				log.Warn().Err(err).Str("path", evalFile).
					Msg("nnue weights unavailable, using material evaluation")
				return material.NewEvaluationService()
			}
			log.Info().Str("path", evalFile).Msg("loaded nnue weights")
			return nnue.NewEvaluationService(weights)
		case "material":
			return material.NewEvaluationService()
		}
		panic(fmt.Errorf("bad eval %v", key))
	}
}

package router

import (
	"github.com/rs/zerolog"

	"www.github.com/Wanderer0074348/HybridRoute/src/models"
)

// FallbackManager turns a terminal pipeline error into a result. Transport
// and capacity failures degrade to a local answer; anything else becomes a
// structured failure.
type FallbackManager struct {
	local  *LocalResponder
	logger zerolog.Logger
}

func NewFallbackManager(local *LocalResponder, logger zerolog.Logger) *FallbackManager {
	return &FallbackManager{local: local, logger: logger}
}

// Degrades reports whether errors of kind fall back to the local responder.
func Degrades(kind models.ErrorKind) bool {
	switch kind {
	case models.ErrorUnavailable, models.ErrorRateLimited, models.ErrorTimeout, models.ErrorCircuitOpen:
		return true
	default:
		return false
	}
}

// Handle fills result from err. attempted is the route that failed.
func (f *FallbackManager) Handle(result *models.ProcessingResult, attempted models.ProcessingRoute, err error) *models.ProcessingResult {
	kind := models.KindOf(err)
	if kind == "" {
		kind = models.ErrorInternal
	}

	result.ErrorKind = kind
	if err != nil {
		result.Error = err.Error()
	}

	if Degrades(kind) {
		f.logger.Warn().
			Err(err).
			Str("request_id", result.RequestID).
			Str("attempted", string(attempted)).
			Str("kind", string(kind)).
			Msg("networked path failed, answering locally")

		result.Route = models.RouteLocal
		result.Success = true
		result.Degraded = true
		result.Model = LocalModel
		result.TokensUsed = 0
		result.Cost = 0
		result.Output = f.local.Respond(result.Classification)
		return result
	}

	f.logger.Error().
		Err(err).
		Str("request_id", result.RequestID).
		Str("attempted", string(attempted)).
		Str("kind", string(kind)).
		Msg("request failed")

	result.Route = attempted
	result.Success = false
	result.Output = "Unable to process request: " + string(kind)
	return result
}

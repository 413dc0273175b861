// Package oracle fronts the hosted generative model that does all the
// actual forecasting. The rest of the application talks to one Capability
// value constructed at process start; whether that value is the live
// Gemini client or the deterministic demo fallback is decided once, by
// credential presence, never per call site.
//
// Failure policy is two-tier throughout: transport and provider errors
// propagate to the caller, while parse and shape problems in a reply are
// absorbed, logged, and expressed as nil data.
package oracle

import (
	"context"
	"time"

	"auroracast/internal/aurora"
	"auroracast/internal/config"
	"auroracast/internal/logging"
)

// Capability is everything the application needs from the model provider.
type Capability interface {
	// FetchForecast runs one grounded forecast request. The error return
	// carries transport and provider failures only; a reply without a
	// parseable data block yields a result with a nil Report.
	FetchForecast(ctx context.Context, loc aurora.Coordinates) (*aurora.ForecastResult, error)

	// AnalyzePhoto sends an image with the analysis prompt. Any failure,
	// transport or parse alike, collapses to nil; callers treat nil as a
	// valid "no analysis" outcome.
	AnalyzePhoto(ctx context.Context, image []byte, mimeType, deviceLabel string) *aurora.PhotoAnalysis

	// NewChat opens a persona-bound conversation and returns its handle.
	// Discarding the handle is the only way to reset history.
	NewChat(ctx context.Context) (ChatSession, error)

	// Live reports whether a real provider backs this capability.
	Live() bool
}

// ChatSession is an opaque handle onto provider-held conversational
// state. Implementations serialize Send internally; a failed Send leaves
// the session usable for the next turn.
type ChatSession interface {
	Send(ctx context.Context, message string) (string, error)
}

// Settings carries the provider knobs the capability needs.
type Settings struct {
	APIKey     string
	Model      string // forecast requests
	PhotoModel string
	ChatModel  string
	DemoDelay  time.Duration
	ForceDemo  bool
}

// FromConfig maps the application config onto provider settings.
func FromConfig(cfg *config.Config) Settings {
	return Settings{
		APIKey:     cfg.Oracle.APIKey,
		Model:      cfg.Oracle.Model,
		PhotoModel: cfg.Oracle.PhotoModel,
		ChatModel:  cfg.Oracle.ChatModel,
		DemoDelay:  cfg.GetDemoDelay(),
		ForceDemo:  cfg.Oracle.ForceDemo,
	}
}

// New constructs the process-wide capability. An absent credential (or a
// forced demo flag) selects the fallback; otherwise the live client is
// built, and only that construction can fail.
func New(ctx context.Context, st Settings) (Capability, error) {
	if st.ForceDemo || st.APIKey == "" {
		logging.Boot("oracle: demo capability selected (credential absent or demo forced)")
		return NewDemo(st.DemoDelay), nil
	}
	logging.Boot("oracle: live capability selected (model=%s)", st.Model)
	return NewGemini(ctx, st)
}

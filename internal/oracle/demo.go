package oracle

import (
	"context"
	"time"

	"auroracast/internal/aurora"
	"auroracast/internal/logging"
)

const defaultDemoDelay = 1200 * time.Millisecond

// Demo is the offline capability. It substitutes deterministic content
// for every operation so the rest of the system exercises its full flow
// without a credential.
type Demo struct {
	delay time.Duration
}

// NewDemo creates the offline capability. The delay stands in for network
// latency on forecast and photo calls; non-positive values fall back to
// the default.
func NewDemo(delay time.Duration) *Demo {
	if delay <= 0 {
		delay = defaultDemoDelay
	}
	return &Demo{delay: delay}
}

// Live reports that simulated content backs this capability.
func (d *Demo) Live() bool { return false }

// FetchForecast waits out the simulated latency and returns the canned
// storm scenario. It fails only when the caller gives up first.
func (d *Demo) FetchForecast(ctx context.Context, loc aurora.Coordinates) (*aurora.ForecastResult, error) {
	logging.Forecast("demo forecast for lat=%.4f lon=%.4f", loc.Lat, loc.Lon)
	if err := d.sleep(ctx); err != nil {
		return nil, err
	}
	return &aurora.ForecastResult{
		Report:    demoReport(),
		RawText:   demoNarrative,
		Sources:   demoSources(),
		FetchedAt: time.Now(),
	}, nil
}

// AnalyzePhoto waits out the simulated latency and returns the canned
// analysis. A cancelled context yields nil like any other failure.
func (d *Demo) AnalyzePhoto(ctx context.Context, image []byte, mimeType, deviceLabel string) *aurora.PhotoAnalysis {
	logging.Photo("demo analysis for %d byte image (device=%s)", len(image), deviceLabel)
	if err := d.sleep(ctx); err != nil {
		return nil
	}
	return demoAnalysis()
}

// NewChat returns the canned session immediately. Demo chat carries no
// latency at all.
func (d *Demo) NewChat(ctx context.Context) (ChatSession, error) {
	return demoChat{}, nil
}

func (d *Demo) sleep(ctx context.Context) error {
	timer := time.NewTimer(d.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// demoReport builds a fresh copy of the canned storm report. Callers get
// their own value so downstream mutation cannot bleed between fetches.
func demoReport() *aurora.WeatherReport {
	return &aurora.WeatherReport{
		KpIndex:          6.33,
		SolarWindSpeed:   587.4,
		SolarWindDensity: 12.1,
		Bz:               -8.2,
		ProbabilityScore: 85,
		VisibilityChance: aurora.VisibilityHigh,
		TonightsWindow:   "22:00 - 02:00",
		NearestDetection: &aurora.Detection{
			Location: "Akureyri, 92 km north",
			Status:   "Active display reported 40 minutes ago",
		},
		SolarFlare: &aurora.SolarFlare{
			Class:  "M4.5",
			Time:   "14:30 UTC",
			Impact: "Minor radio blackouts on the sunlit side",
			Region: "AR3664",
			ETA:    "Glancing CME arrival expected within 24h",
		},
		LocationName: "Simulated Sector (Demo)",
		Forecast: []aurora.ForecastPoint{
			{Time: "Now", Kp: 6.3},
			{Time: "+1h", Kp: 6.7},
			{Time: "+2h", Kp: 7.1},
			{Time: "+3h", Kp: 6.8},
			{Time: "+4h", Kp: 6.2},
			{Time: "+5h", Kp: 5.9},
		},
	}
}

const demoNarrative = "Simulated conditions: a moderate G2 storm is in progress. " +
	"The interplanetary magnetic field has tipped sharply south, solar wind is " +
	"running fast and dense, and the oval has pushed well equatorward of its " +
	"quiet-time position. Expect strong overhead activity from the simulated " +
	"sector, peaking in the next two hours before easing toward dawn."

func demoSources() []aurora.GroundingSource {
	return []aurora.GroundingSource{
		{
			URI:   "https://www.swpc.noaa.gov/",
			Title: "Simulated Data Source - NOAA SWPC (Demo)",
		},
	}
}

func demoAnalysis() *aurora.PhotoAnalysis {
	return &aurora.PhotoAnalysis{
		CloudCover:     "Roughly 20% cover, thin and broken toward the northern horizon",
		DarknessRating: "Good - rural sky with minor glow on the southern edge",
		RecommendedSettings: aurora.CameraSettings{
			ISO:          "3200",
			ShutterSpeed: "4s",
			Aperture:     "f/1.8 or the widest available",
			Focus:        "Manual, set to infinity on a bright star",
		},
		Checklist: []string{
			"Brace the phone on a rock or tripod, any shake ruins long exposures",
			"Switch off the flash and screen brightness before framing",
			"Frame the northern horizon and include some foreground for scale",
		},
		Feedback: "Simulated analysis: this spot looks promising. The sky is dark " +
			"enough and the cloud deck leaves a wide clear band where the oval " +
			"should sit. Settle in and let the camera gather light.",
	}
}

const demoChatReply = "I am running in demo mode without a live connection, so I " +
	"cannot look anything up right now. Add a Gemini API key to unlock real " +
	"answers. In the meantime: dress warmer than you think you need to, let " +
	"your eyes adapt for twenty minutes, and keep watching the northern sky."

// demoChat answers every message with the same canned reply, instantly.
type demoChat struct{}

func (demoChat) Send(ctx context.Context, message string) (string, error) {
	return demoChatReply, nil
}

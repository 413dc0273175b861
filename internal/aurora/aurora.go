// Package aurora defines the domain model shared by every auroracast
// surface: the weather report decoded from model replies, photo analysis
// results, grounding citations, and chat transcript entries.
package aurora

import (
	"math"
	"time"
)

// Coordinates is a caller-owned latitude/longitude pair in decimal
// degrees. It is immutable input to a forecast fetch.
type Coordinates struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// DefaultCoordinates is the fixed fallback location (Reykjavik) used
// when the caller has nothing better.
var DefaultCoordinates = Coordinates{Lat: 64.1265, Lon: -21.8174}

// Valid reports whether both components are finite numbers. No range
// check beyond that; the model copes with any real location.
func (c Coordinates) Valid() bool {
	for _, v := range []float64{c.Lat, c.Lon} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Visibility is the coarse aurora visibility grade reported by the model.
type Visibility string

const (
	VisibilityLow      Visibility = "Low"
	VisibilityModerate Visibility = "Moderate"
	VisibilityHigh     Visibility = "High"
	VisibilityExtreme  Visibility = "Extreme"
)

// ForecastPoint is one entry of the short-term kp projection. The series
// carries six points labeled Now, +1h .. +5h.
type ForecastPoint struct {
	Time string  `json:"time"`
	Kp   float64 `json:"kp"`
}

// Detection describes the nearest reported aurora sighting.
type Detection struct {
	Location string `json:"location"`
	Status   string `json:"status"`
}

// SolarFlare summarizes the most recent significant flare. Class uses
// the standard scale ("X1.5", "M2") or the sentinel "None". Region and
// ETA are only present when the model found them.
type SolarFlare struct {
	Class  string `json:"class"`
	Time   string `json:"time"`
	Impact string `json:"impact"`
	Region string `json:"region,omitempty"`
	ETA    string `json:"eta,omitempty"`
}

// WeatherReport is the structured payload embedded in a forecast reply.
// A report is built fresh per fetch, never mutated afterward, and
// replaced wholesale on refresh.
type WeatherReport struct {
	KpIndex          float64        `json:"kpIndex"`
	SolarWindSpeed   float64        `json:"solarWindSpeed"`   // km/s
	SolarWindDensity float64        `json:"solarWindDensity"` // particles/cm^3
	Bz               float64        `json:"bz"`               // nT, sign-significant
	ProbabilityScore int            `json:"probabilityScore"` // 0-100
	VisibilityChance Visibility     `json:"visibilityChance"`
	TonightsWindow   string         `json:"tonightsWindow"`
	NearestDetection *Detection     `json:"nearestDetection,omitempty"`
	SolarFlare       *SolarFlare    `json:"solarFlare,omitempty"`
	LocationName     string         `json:"locationName"`
	Forecast         []ForecastPoint `json:"forecast"`
}

// GroundingSource is one web citation attached to a forecast fetch.
// Chunks without a web reference never become sources.
type GroundingSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// ForecastResult bundles everything one fetch produced. Report and
// RawText always derive from the same model reply; Report is nil when
// the reply carried no parseable data block, which callers must treat
// as a valid outcome (narrative-only display).
type ForecastResult struct {
	Report    *WeatherReport    `json:"report"`
	RawText   string            `json:"rawText"`
	Sources   []GroundingSource `json:"sources"`
	FetchedAt time.Time         `json:"fetchedAt"`
}

// CameraSettings holds the free-text exposure recommendations from a
// photo analysis.
type CameraSettings struct {
	ISO          string `json:"iso"`
	ShutterSpeed string `json:"shutterSpeed"`
	Aperture     string `json:"aperture"`
	Focus        string `json:"focus"`
}

// PhotoAnalysis is the structured verdict on a sky photo. The checklist
// is three advisory strings by contract, but length is not enforced on
// decode.
type PhotoAnalysis struct {
	CloudCover          string         `json:"cloudCover"`
	DarknessRating      string         `json:"darknessRating"`
	RecommendedSettings CameraSettings `json:"recommendedSettings"`
	Checklist           []string       `json:"checklist"`
	Feedback            string         `json:"feedback"`
}

// Role identifies who produced a chat transcript entry.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ChatMessage is one locally mirrored transcript entry. The provider
// owns the real conversational state; this is display history only.
type ChatMessage struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

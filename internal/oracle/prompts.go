package oracle

import (
	"fmt"

	"auroracast/internal/aurora"
)

// forecastPersona is the fixed system instruction for forecast requests.
const forecastPersona = "You are Aurora Sentinel, a precise space-weather briefing assistant for sky watchers. Ground every reading in live data from reputable sources (NOAA SWPC, SpaceWeatherLive, magnetometer networks, recent sighting reports). Plain language, no hype, never invent readings you could not find."

// chatSafetyDirective is appended to the persona for conversational
// sessions only.
const chatSafetyDirective = "Keep answers short and conversational, two or three sentences unless asked for detail. Remind people about cold-weather and remote-travel safety when they plan trips. Decline topics unrelated to aurora watching, space weather, or night photography."

// chatPersona is the system instruction for chat sessions.
const chatPersona = forecastPersona + " " + chatSafetyDirective

// forecastPrompt builds the single grounded request for one location.
// The latitude thresholds and solar-wind scoring guidance ride inside the
// prompt: they steer the model's reasoning and are not code logic here.
func forecastPrompt(loc aurora.Coordinates) string {
	return fmt.Sprintf(`Use live web search for current space weather conditions and produce an aurora visibility briefing for the observer at latitude %.4f, longitude %.4f.

Structure the reply in two parts, in this order:

1. A short narrative summary (two or three paragraphs) of tonight's aurora outlook at this location: current geomagnetic activity, what is driving it, and when to look.

2. Exactly one fenced code block tagged json containing a single JSON object with exactly these fields:
{
  "kpIndex": <current planetary Kp, number>,
  "solarWindSpeed": <km/s, number>,
  "solarWindDensity": <particles per cubic cm, number>,
  "bz": <interplanetary magnetic field north-south component in nT, signed number>,
  "probabilityScore": <0-100 integer chance of visible aurora at this exact location tonight>,
  "visibilityChance": <"Low" | "Moderate" | "High" | "Extreme">,
  "tonightsWindow": <best local viewing window as free text, e.g. "22:00 - 01:30">,
  "nearestDetection": {"location": <place of the nearest recent confirmed sighting>, "status": <how recent/active it is>},
  "solarFlare": {"class": <"X1.5" style class or "None">, "time": <peak time>, "impact": <one-line impact>, "region": <source active region if known>, "eta": <arrival estimate for any associated CME if known>},
  "locationName": <human-readable name for the coordinates>,
  "forecast": [exactly six entries {"time": <label>, "kp": <number>} with time labels "Now", "+1h", "+2h", "+3h", "+4h", "+5h"]
}

Scoring guidance for probabilityScore and visibilityChance:
- Latitude thresholds: aurora typically becomes visible around Kp 4 near 55 degrees latitude, around Kp 6 near 50 degrees, and only at Kp 7 or higher near 45 degrees and below.
- Bz: southward (negative) favors aurora; sustained Bz below -5 nT is a strong driver, positive Bz suppresses activity.
- Solar wind speed: above 500 km/s raises chances, above 700 km/s strongly.
- Solar wind density: above 10 particles per cubic cm is favorable.

Omit nearestDetection if no recent sighting is reported anywhere relevant. Use "None" for solarFlare.class when nothing significant occurred; include region and eta only when known. Do not add fields, and do not put any prose after the fenced block.`, loc.Lat, loc.Lon)
}

// photoPrompt builds the image-analysis request. The reply is requested
// as bare JSON with no prose wrapper; the extractor still backstops the
// occasional fenced reply.
func photoPrompt(deviceLabel string) string {
	return fmt.Sprintf(`Analyze this night-sky photo taken with a %s for aurora photography potential. Respond with ONLY a JSON object, no prose and no code fences, with exactly these fields:
{
  "cloudCover": <estimated cloud coverage of the visible sky, e.g. "20%%">,
  "darknessRating": <sky darkness out of 10, e.g. "7/10">,
  "recommendedSettings": {
    "iso": <ISO for aurora on this device>,
    "shutterSpeed": <shutter time>,
    "aperture": <aperture or "widest available">,
    "focus": <focus advice>
  },
  "checklist": [<exactly three short preparation tips as strings>],
  "feedback": <one or two encouraging sentences about this framing and sky>
}`, deviceLabel)
}

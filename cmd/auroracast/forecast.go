package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"auroracast/cmd/auroracast/ui"
	"auroracast/internal/aurora"
	"auroracast/internal/store"
)

var (
	forecastLat  float64
	forecastLon  float64
	forecastJSON bool
	forecastSkip bool
)

// forecastCmd fetches and renders one briefing
var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Fetch tonight's aurora briefing for your location",
	Long: `Runs one grounded forecast request and renders the reply: the structured
readings as a card, the narrative below it, and the web sources the model
consulted. The fetch is archived unless --no-save is given.`,
	RunE: runForecast,
}

func init() {
	forecastCmd.Flags().Float64Var(&forecastLat, "lat", 0, "Observer latitude (default: configured location)")
	forecastCmd.Flags().Float64Var(&forecastLon, "lon", 0, "Observer longitude (default: configured location)")
	forecastCmd.Flags().BoolVar(&forecastJSON, "json", false, "Print the raw result as JSON")
	forecastCmd.Flags().BoolVar(&forecastSkip, "no-save", false, "Do not archive this fetch")
}

func runForecast(cmd *cobra.Command, args []string) error {
	loc := aurora.Coordinates{
		Lat: cfg.Location.Latitude,
		Lon: cfg.Location.Longitude,
	}
	if cmd.Flags().Changed("lat") {
		loc.Lat = forecastLat
	}
	if cmd.Flags().Changed("lon") {
		loc.Lon = forecastLon
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.GetRequestTimeout())
	defer cancel()

	if !capability.Live() {
		fmt.Fprintln(os.Stderr, "No API key configured, showing simulated data. Set GEMINI_API_KEY for live forecasts.")
	}

	res, err := capability.FetchForecast(ctx, loc)
	if err != nil {
		return fmt.Errorf("forecast failed: %w", err)
	}

	if forecastJSON {
		out := struct {
			Demo bool `json:"demo"`
			*aurora.ForecastResult
		}{!capability.Live(), res}
		raw, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(raw))
	} else {
		fmt.Println(renderForecast(ui.DefaultStyles(), res, capability.Live()))
	}

	if !forecastSkip && !cfg.Store.Disabled {
		if id := archiveFetch(ctx, loc, res); id != "" && !forecastJSON {
			fmt.Println(ui.DefaultStyles().Muted.Render("  saved as " + id))
		}
	}
	return nil
}

// archiveFetch saves one result, best effort. A broken archive should
// never eat a successfully rendered forecast.
func archiveFetch(ctx context.Context, loc aurora.Coordinates, res *aurora.ForecastResult) string {
	archive, err := store.Open(databasePath())
	if err != nil {
		if logger != nil {
			logger.Warn("archive unavailable", zap.Error(err))
		}
		return ""
	}
	defer archive.Close()

	id, err := archive.SaveForecast(ctx, loc, res, !capability.Live())
	if err != nil {
		if logger != nil {
			logger.Warn("archive save failed", zap.Error(err))
		}
		return ""
	}
	return id
}

func databasePath() string {
	return cfg.Store.DatabasePath
}

const cardWidth = 64

// renderForecast lays out one briefing: readings card, hourly trend,
// narrative, sources. A nil report degrades to narrative only.
func renderForecast(st ui.Styles, res *aurora.ForecastResult, live bool) string {
	var sections []string

	badge := st.DemoBadge.Render("DEMO")
	if live {
		badge = st.Badge.Render("LIVE")
	}
	title := st.Title.Render("AURORA SENTINEL")
	gap := cardWidth - lipgloss.Width(title) - lipgloss.Width(badge)
	if gap < 1 {
		gap = 1
	}
	sections = append(sections, title+strings.Repeat(" ", gap)+badge)

	report := res.Report
	if report == nil {
		sections = append(sections,
			st.Warning.Render("The briefing came back without structured readings."),
			"",
			st.Body.Width(cardWidth).Render(res.RawText),
		)
		return finishCard(st, sections, res)
	}

	where := report.LocationName
	if where == "" {
		where = "your location"
	}
	sections = append(sections,
		st.Subtitle.Render(fmt.Sprintf("%s · fetched %s", where, res.FetchedAt.Local().Format("Mon 15:04"))),
		"")

	kpStyle := lipgloss.NewStyle().Foreground(ui.KpColor(report.KpIndex)).Bold(true)
	chanceStyle := lipgloss.NewStyle().Foreground(ui.VisibilityColor(string(report.VisibilityChance))).Bold(true)
	sections = append(sections, fmt.Sprintf("%s  %s  %s %s",
		kpStyle.Render(fmt.Sprintf("Kp %.1f", report.KpIndex)),
		ui.KpBar(report.KpIndex, 18),
		chanceStyle.Render(strings.ToUpper(string(report.VisibilityChance))),
		st.Muted.Render(fmt.Sprintf("· %d%% chance", report.ProbabilityScore)),
	), "")

	bzDir := "northward"
	if report.Bz < 0 {
		bzDir = "southward"
	}
	rows := [][2]string{
		{"Solar wind", fmt.Sprintf("%.0f km/s", report.SolarWindSpeed)},
		{"Density", fmt.Sprintf("%.1f p/cm³", report.SolarWindDensity)},
		{"Bz", fmt.Sprintf("%.1f nT %s", report.Bz, bzDir)},
	}
	if report.TonightsWindow != "" {
		rows = append(rows, [2]string{"Best window", report.TonightsWindow})
	}
	if d := report.NearestDetection; d != nil {
		rows = append(rows, [2]string{"Nearest sighting", fmt.Sprintf("%s - %s", d.Location, d.Status)})
	}
	if f := report.SolarFlare; f != nil && !strings.EqualFold(f.Class, "none") {
		flare := fmt.Sprintf("%s at %s - %s", f.Class, f.Time, f.Impact)
		if f.ETA != "" {
			flare += " (" + f.ETA + ")"
		}
		rows = append(rows, [2]string{"Solar flare", flare})
	}
	for _, row := range rows {
		sections = append(sections, st.Label.Render(row[0])+st.Value.Render(row[1]))
	}

	if len(report.Forecast) > 0 {
		sections = append(sections, "", st.Bold.Render("Next hours"))
		for _, point := range report.Forecast {
			sections = append(sections, fmt.Sprintf("  %-4s %s %s",
				point.Time, st.Muted.Render(fmt.Sprintf("%.1f", point.Kp)), ui.KpBar(point.Kp, 24)))
		}
	}

	if res.RawText != "" {
		sections = append(sections, "", st.Body.Width(cardWidth).Render(res.RawText))
	}
	return finishCard(st, sections, res)
}

func finishCard(st ui.Styles, sections []string, res *aurora.ForecastResult) string {
	if len(res.Sources) > 0 {
		sections = append(sections, "", st.Bold.Render("Sources"))
		for _, src := range res.Sources {
			sections = append(sections, "  • "+src.Title+"  "+st.Source.Render(src.URI))
		}
	}
	return st.Card.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"auroracast/cmd/auroracast/ui"
	"auroracast/internal/store"
)

var historyLimit int

// historyCmd lists and replays archived briefings
var historyCmd = &cobra.Command{
	Use:   "history [record-id]",
	Short: "Browse archived forecast briefings",
	Long: `Without arguments, lists the most recent archived fetches. Pass a
record id to replay that briefing in full.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of records to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if cfg.Store.Disabled {
		return fmt.Errorf("the report archive is disabled in the configuration")
	}

	archive, err := store.Open(cfg.Store.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open report archive: %w", err)
	}
	defer archive.Close()

	if len(args) == 1 {
		return showRecord(cmd.Context(), archive, args[0])
	}
	return listRecords(cmd.Context(), archive)
}

func listRecords(ctx context.Context, archive *store.Archive) error {
	st := ui.DefaultStyles()

	summaries, err := archive.Recent(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list archive: %w", err)
	}
	if len(summaries) == 0 {
		fmt.Println(st.Muted.Render("No archived forecasts yet. Run a forecast first."))
		return nil
	}

	var b strings.Builder
	b.WriteString(st.Title.Render("FORECAST HISTORY"))
	b.WriteString("\n\n")
	for _, s := range summaries {
		when := s.FetchedAt.Local().Format("Jan 02 15:04")
		line := fmt.Sprintf("%s  ", st.Value.Render(when))
		if s.HasReport {
			kp := lipgloss.NewStyle().Foreground(ui.KpColor(s.KpIndex)).Render(fmt.Sprintf("Kp %.1f", s.KpIndex))
			chance := lipgloss.NewStyle().Foreground(ui.VisibilityColor(s.VisibilityChance)).Render(s.VisibilityChance)
			line += fmt.Sprintf("%s  %s  %s", kp, chance, s.LocationName)
		} else {
			line += st.Warning.Render("no structured readings")
		}
		if s.Demo {
			line += "  " + st.DemoBadge.Render("DEMO")
		}
		b.WriteString(line)
		b.WriteString("\n")
		b.WriteString(st.Muted.Render("  " + s.ID))
		b.WriteString("\n")
	}
	fmt.Println(b.String())
	return nil
}

func showRecord(ctx context.Context, archive *store.Archive, id string) error {
	rec, err := archive.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no archived forecast with id %s", id)
	}
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}

	fmt.Println(renderForecast(ui.DefaultStyles(), &rec.Result, !rec.Demo))
	return nil
}

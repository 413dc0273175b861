package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"auroracast/cmd/auroracast/ui"
	"auroracast/internal/aurora"
)

var photoDevice string

// photoCmd analyzes a night-sky shot for aurora photography potential
var photoCmd = &cobra.Command{
	Use:   "photo [image-file]",
	Short: "Get camera advice for a night-sky photo",
	Long: `Sends a photo of your sky to the model and prints its verdict: cloud
cover, darkness, recommended camera settings, and a short preparation
checklist. When the model cannot produce a verdict the advisor stays
quiet rather than failing the command.`,
	Args: cobra.ExactArgs(1),
	RunE: runPhoto,
}

func init() {
	photoCmd.Flags().StringVar(&photoDevice, "device", "Smartphone", "Camera the photo was taken with (shapes the settings advice)")
}

func runPhoto(cmd *cobra.Command, args []string) error {
	path := args[0]
	image, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.GetRequestTimeout())
	defer cancel()

	st := ui.DefaultStyles()
	if !capability.Live() {
		fmt.Fprintln(os.Stderr, "No API key configured, showing a simulated analysis.")
	}

	analysis := capability.AnalyzePhoto(ctx, image, mimeTypeFor(path), photoDevice)
	if analysis == nil {
		fmt.Println(st.Muted.Render("No analysis available for this image. Try a clearer shot of the sky."))
		return nil
	}

	fmt.Println(renderAnalysis(st, analysis))
	return nil
}

func mimeTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".heic", ".heif":
		return "image/heic"
	default:
		return "image/jpeg"
	}
}

func renderAnalysis(st ui.Styles, analysis *aurora.PhotoAnalysis) string {
	sections := []string{
		st.Title.Render("SHOT ADVISOR"),
		"",
		st.Label.Render("Cloud cover") + st.Value.Render(analysis.CloudCover),
		st.Label.Render("Darkness") + st.Value.Render(analysis.DarknessRating),
		"",
		st.Bold.Render("Camera settings"),
		st.Label.Render("  ISO") + st.Value.Render(analysis.RecommendedSettings.ISO),
		st.Label.Render("  Shutter") + st.Value.Render(analysis.RecommendedSettings.ShutterSpeed),
		st.Label.Render("  Aperture") + st.Value.Render(analysis.RecommendedSettings.Aperture),
		st.Label.Render("  Focus") + st.Value.Render(analysis.RecommendedSettings.Focus),
	}

	if len(analysis.Checklist) > 0 {
		sections = append(sections, "", st.Bold.Render("Before you shoot"))
		for _, tip := range analysis.Checklist {
			sections = append(sections, "  • "+st.Body.Render(tip))
		}
	}
	if analysis.Feedback != "" {
		sections = append(sections, "", st.Body.Width(cardWidth).Render(analysis.Feedback))
	}
	return st.Card.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

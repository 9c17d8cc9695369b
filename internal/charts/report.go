// Package charts renders interactive HTML reports for a
// recommendation run.
package charts

import (
	"fmt"
	"log"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ramonehamilton/commander-crafter/internal/engine"
)

// ReportConfig holds configuration for the recommendation report chart.
type ReportConfig struct {
	Title    string // Chart title
	Subtitle string // Chart subtitle
	Width    string // Chart width (e.g., "1100px")
	Height   string // Chart height (e.g., "550px")
	Theme    string // Chart theme
	MaxBars  int    // Maximum candidates to plot (0 = all)
}

// DefaultReportConfig returns default report settings.
func DefaultReportConfig(commander string) ReportConfig {
	return ReportConfig{
		Title:    fmt.Sprintf("Recommendations for %s", commander),
		Subtitle: "Base text similarity vs. final fused score",
		Width:    "1100px",
		Height:   "550px",
		Theme:    "light",
		MaxBars:  30,
	}
}

// RenderScoreReport writes an HTML bar chart comparing base similarity
// and final score for each recommended candidate.
func RenderScoreReport(recs []engine.Recommendation, config ReportConfig, outputPath string) error {
	if len(recs) == 0 {
		return fmt.Errorf("no recommendations to chart")
	}
	if config.MaxBars > 0 && len(recs) > config.MaxBars {
		recs = recs[:config.MaxBars]
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    config.Title,
			Subtitle: config.Subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{
				Show:   opts.Bool(true),
				Rotate: 40,
			},
		}),
	)

	xLabels := make([]string, len(recs))
	baseData := make([]opts.BarData, len(recs))
	finalData := make([]opts.BarData, len(recs))
	for i, rec := range recs {
		xLabels[i] = rec.Name
		baseData[i] = opts.BarData{Value: rec.Base}
		finalData[i] = opts.BarData{Value: rec.Final}
	}

	bar.SetXAxis(xLabels).
		AddSeries("Base Similarity", baseData).
		AddSeries("Final Score", finalData).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(false),
			}),
		)

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}

	if err := bar.Render(f); err != nil {
		if closeErr := f.Close(); closeErr != nil {
			log.Printf("[Charts] Error closing %s: %v", outputPath, closeErr)
		}
		return fmt.Errorf("failed to render chart: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close chart file: %w", err)
	}

	return nil
}

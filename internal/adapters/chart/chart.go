// Package chart renders the ranked teammate frequencies as a horizontal
// bar chart written to a PNG file.
package chart

import (
	"context"
	"fmt"

	"github.com/fogleman/gg"

	"github.com/mythra/keymates/internal/domain/tally"
	"github.com/mythra/keymates/pkg/logger"
)

// Layout constants, in pixels.
const (
	chartWidth   = 1000
	rowHeight    = 34
	barHeight    = 22
	marginTop    = 56
	marginBottom = 48
	marginLeft   = 230
	marginRight  = 70
	minHeight    = 320
)

// Renderer draws ranked teammate bars into a raster image.
type Renderer struct {
	width  int
	logger logger.Logger
}

// NewRenderer constructs a Renderer.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		width:  chartWidth,
		logger: nil, // resolved lazily from the global logger
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = logger.Named("chart")
	}
	return r
}

// Render writes the bar chart for entries to path. Entries are expected
// ranked most-frequent first. An empty entry list is a no-op: a diagnostic
// is logged and no file is written.
func (r *Renderer) Render(ctx context.Context, entries []tally.Entry, subject string, totalRuns int, path string) error {
	if len(entries) == 0 {
		r.logger.Warn(ctx, "no teammate data to plot")
		return nil
	}

	height := marginTop + marginBottom + len(entries)*rowHeight
	if height < minHeight {
		height = minHeight
	}

	dc := gg.NewContext(r.width, height)

	// Background
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// Title
	dc.SetRGB(0.15, 0.15, 0.15)
	dc.DrawStringAnchored("Top Mythic+ Teammates", float64(r.width)/2, marginTop/2, 0.5, 0.5)

	maxCount := entries[0].Count
	for _, e := range entries {
		if e.Count > maxCount {
			maxCount = e.Count
		}
	}

	plotWidth := float64(r.width - marginLeft - marginRight)

	for i, e := range entries {
		y := float64(marginTop + i*rowHeight)
		barLen := plotWidth * float64(e.Count) / float64(maxCount)

		// Label, right-aligned against the plot area
		dc.SetRGB(0.15, 0.15, 0.15)
		dc.DrawStringAnchored(e.Identity, marginLeft-10, y+float64(rowHeight)/2, 1, 0.5)

		// Bar
		dc.SetRGB(70.0/255, 130.0/255, 180.0/255) // steelblue
		dc.DrawRectangle(marginLeft, y+float64(rowHeight-barHeight)/2, barLen, barHeight)
		dc.Fill()

		// Exact count annotation past the bar end
		dc.SetRGB(0.25, 0.25, 0.25)
		dc.DrawStringAnchored(fmt.Sprintf("%d", e.Count), marginLeft+barLen+6, y+float64(rowHeight)/2, 0, 0.5)
	}

	// Footer metadata: whose data, over how many runs
	dc.SetRGB(0.45, 0.45, 0.45)
	footer := fmt.Sprintf("%s - %d runs", subject, totalRuns)
	dc.DrawStringAnchored(footer, float64(r.width)-10, float64(height)-marginBottom/2, 1, 0.5)

	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}

	r.logger.Info(ctx, "chart saved",
		logger.String("path", path),
		logger.Int("teammates", len(entries)),
	)
	return nil
}

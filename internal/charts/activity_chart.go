package charts

// Renders the /stats image: whale swap counts per hour over the last day.

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"time"

	"github.com/fogleman/gg"
	"go.uber.org/zap"

	"whale-tracker/internal/infra/log"
	"whale-tracker/internal/store"
)

const (
	chartWidth  = 1600
	chartHeight = 900

	chartAreaLeft   = 120.0
	chartAreaRight  = 1520.0
	chartAreaTop    = 180.0
	chartAreaBottom = 780.0

	titleX = 120.0
	titleY = 90.0

	titleFontSize = 44.0
	labelFontSize = 22.0
	valueFontSize = 24.0

	barGap         = 8.0
	valueOffsetY   = 12.0
	hourLabelEvery = 4 // draw every 4th hour label
	gridSteps      = 4
)

var fontPaths = []string{
	"etc/fonts/Inter-Regular.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	"/System/Library/Fonts/Supplemental/Arial.ttf",
}

// RenderHourlyActivity draws a bar chart of swap counts per hour and
// returns the PNG bytes. counts must be in ascending hour order; hours
// with no swaps simply have no bucket and render as empty slots.
func RenderHourlyActivity(counts []store.HourlyCount, now time.Time) ([]byte, error) {
	buckets := make(map[time.Time]int, len(counts))
	for _, c := range counts {
		buckets[c.Hour.UTC()] = c.Count
	}

	// Fill a fixed 24-slot window ending at the current hour.
	end := now.UTC().Truncate(time.Hour)
	var values []int
	var labels []string
	maxCount := 0
	for i := 23; i >= 0; i-- {
		hour := end.Add(-time.Duration(i) * time.Hour)
		count := buckets[hour]
		values = append(values, count)
		labels = append(labels, hour.Format("15:04"))
		if count > maxCount {
			maxCount = count
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	dc := gg.NewContext(chartWidth, chartHeight)
	dc.SetColor(color.Black)
	dc.Clear()

	fontPath := findFont()
	loadFont := func(size float64) {
		if fontPath != "" {
			dc.LoadFontFace(fontPath, size)
		}
	}

	loadFont(titleFontSize)
	dc.SetColor(color.White)
	dc.DrawString("Whale Swaps / Hour (24h)", titleX, titleY)

	// Grid lines with count labels.
	loadFont(labelFontSize)
	chartAreaHeight := chartAreaBottom - chartAreaTop
	dc.SetLineWidth(1)
	for i := 0; i <= gridSteps; i++ {
		value := float64(maxCount) * float64(i) / gridSteps
		y := chartAreaBottom - (value/float64(maxCount))*chartAreaHeight
		dc.SetColor(color.RGBA{60, 60, 60, 255})
		dc.DrawLine(chartAreaLeft, y, chartAreaRight, y)
		dc.Stroke()
		dc.SetColor(color.White)
		dc.DrawString(fmt.Sprintf("%.0f", value), chartAreaLeft-70, y+8)
	}

	barWidth := (chartAreaRight - chartAreaLeft) / float64(len(values))
	for i, count := range values {
		barX := chartAreaLeft + float64(i)*barWidth
		barHeight := float64(count) / float64(maxCount) * chartAreaHeight
		barY := chartAreaBottom - barHeight

		dc.SetColor(color.RGBA{0, 180, 120, 255})
		dc.DrawRectangle(barX+barGap/2, barY, barWidth-barGap, barHeight)
		dc.Fill()

		if count > 0 {
			loadFont(valueFontSize)
			dc.SetColor(color.White)
			text := fmt.Sprintf("%d", count)
			textWidth, _ := dc.MeasureString(text)
			dc.DrawString(text, barX+(barWidth-textWidth)/2, barY-valueOffsetY)
		}

		if i%hourLabelEvery == 0 {
			loadFont(labelFontSize)
			dc.SetColor(color.RGBA{180, 180, 180, 255})
			label := labels[i]
			labelWidth, _ := dc.MeasureString(label)
			dc.DrawString(label, barX+(barWidth-labelWidth)/2, chartAreaBottom+32)
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode chart: %w", err)
	}

	log.LogInfo("Activity chart rendered",
		zap.Int("bars", len(values)),
		zap.Int("max_count", maxCount),
		zap.Int("bytes", buf.Len()))

	return buf.Bytes(), nil
}

func findFont() string {
	for _, path := range fontPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

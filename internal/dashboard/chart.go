package dashboard

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/jonathan/energy-insights/internal/types"
)

// ChartFormat selects the image encoding of a SHAP chart.
type ChartFormat string

const (
	FormatSVG ChartFormat = "svg"
	FormatPNG ChartFormat = "png"
)

// ContentType returns the MIME type served for the format.
func (f ChartFormat) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// ErrNoContributions is returned when a building has no SHAP values to plot.
var ErrNoContributions = errors.New("no SHAP values to plot")

const (
	chartTitle     = "Feature Contributions to Weekend Ratio Prediction"
	chartAxisLabel = "SHAP Value (impact on prediction)"

	chartWidth   = 760
	chartRowH    = 28
	chartTop     = 48
	chartBottom  = 56
	chartRight   = 64
	chartPadding = 10
)

var (
	colorWorsens  = drawing.ColorFromHex("ff6b6b")
	colorImproves = drawing.ColorFromHex("4ecdc4")
	colorAxis     = drawing.ColorFromHex("555555")
	colorText     = drawing.ColorFromHex("262730")
)

// RenderShapChart draws contributions as horizontal bars, first entry on top. Contributions
// should already be ordered by descending magnitude.
func RenderShapChart(w io.Writer, contributions []types.ShapContribution, format ChartFormat) error {
	if len(contributions) == 0 {
		return ErrNoContributions
	}

	provider := chart.SVG
	if format == FormatPNG {
		provider = chart.PNG
	}

	height := chartTop + chartBottom + chartRowH*len(contributions)
	r, err := provider(chartWidth, height)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("load font: %w", err)
	}
	r.SetFont(font)

	r.SetFillColor(drawing.ColorWhite)
	fillRect(r, 0, 0, chartWidth, height)

	// Left margin fits the longest feature name.
	r.SetFontSize(10)
	labelW := 0
	for _, c := range contributions {
		labelW = max(labelW, r.MeasureText(c.Feature).Width())
	}
	left := labelW + 2*chartPadding
	plotW := chartWidth - left - chartRight
	if plotW < 100 {
		plotW = 100
	}

	lo, hi := valueRange(contributions)
	scale := func(v float64) int {
		return left + int(math.Round((v-lo)/(hi-lo)*float64(plotW)))
	}
	zeroX := scale(0)

	for i, c := range contributions {
		top := chartTop + i*chartRowH
		barTop := top + chartRowH/6
		barBottom := top + chartRowH - chartRowH/6
		x0, x1 := zeroX, scale(c.Value)
		if x1 < x0 {
			x0, x1 = x1, x0
		}
		if x1 == x0 {
			x1++
		}

		if c.Value > 0 {
			r.SetFillColor(colorWorsens)
		} else {
			r.SetFillColor(colorImproves)
		}
		fillRect(r, x0, barTop, x1, barBottom)

		baseline := top + chartRowH/2 + 4
		r.SetFontColor(colorText)
		r.SetFontSize(10)
		tw := r.MeasureText(c.Feature).Width()
		r.Text(c.Feature, left-chartPadding-tw, baseline)

		value := strconv.FormatFloat(c.Value, 'f', 3, 64)
		vw := r.MeasureText(value).Width()
		if c.Value >= 0 {
			r.Text(value, x1+4, baseline)
		} else {
			r.Text(value, x0-4-vw, baseline)
		}
	}

	plotBottom := chartTop + chartRowH*len(contributions)
	r.SetStrokeColor(colorAxis)
	r.SetStrokeWidth(1)
	r.MoveTo(zeroX, chartTop-4)
	r.LineTo(zeroX, plotBottom+4)
	r.Stroke()
	r.MoveTo(left, plotBottom+4)
	r.LineTo(left+plotW, plotBottom+4)
	r.Stroke()

	r.SetFontColor(colorText)
	r.SetFontSize(14)
	tw := r.MeasureText(chartTitle).Width()
	r.Text(chartTitle, (chartWidth-tw)/2, chartTop/2+4)

	r.SetFontSize(11)
	aw := r.MeasureText(chartAxisLabel).Width()
	r.Text(chartAxisLabel, left+(plotW-aw)/2, plotBottom+chartBottom/2+8)

	return r.Save(w)
}

// valueRange spans every value and always includes zero so bars grow from a shared origin.
func valueRange(contributions []types.ShapContribution) (lo, hi float64) {
	for _, c := range contributions {
		lo = math.Min(lo, c.Value)
		hi = math.Max(hi, c.Value)
	}
	if hi == lo {
		hi = lo + 1
	}
	pad := (hi - lo) * 0.12
	if lo < 0 {
		lo -= pad
	}
	if hi > 0 {
		hi += pad
	}
	return lo, hi
}

func fillRect(r chart.Renderer, x0, y0, x1, y1 int) {
	r.MoveTo(x0, y0)
	r.LineTo(x1, y0)
	r.LineTo(x1, y1)
	r.LineTo(x0, y1)
	r.Close()
	r.Fill()
}

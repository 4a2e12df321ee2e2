package dashboard

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/energy-insights/internal/types"
)

func contributions() []types.ShapContribution {
	return []types.ShapContribution{
		{Feature: "baseload", Value: 0.5},
		{Feature: "night_ratio", Value: -0.3},
	}
}

func TestRenderShapChart_SVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderShapChart(&buf, contributions(), FormatSVG))

	out := buf.String()
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "baseload")
	assert.Contains(t, out, "night_ratio")
	assert.Contains(t, out, "rgba(255,107,107", "positive bars are red")
	assert.Contains(t, out, "rgba(78,205,196", "negative bars are teal")
	assert.Contains(t, out, "Feature Contributions to Weekend Ratio Prediction")
}

func TestRenderShapChart_PNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderShapChart(&buf, contributions(), FormatPNG))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestRenderShapChart_Empty(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, RenderShapChart(&buf, nil, FormatSVG), ErrNoContributions)
	assert.Zero(t, buf.Len())
}

func TestRenderShapChart_AllZero(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderShapChart(&buf, []types.ShapContribution{{Feature: "flat", Value: 0}}, FormatSVG))
}

func TestValueRange(t *testing.T) {
	lo, hi := valueRange([]types.ShapContribution{{Value: 0.2}, {Value: 0.4}})
	assert.Equal(t, 0.0, lo, "range always includes zero")
	assert.Greater(t, hi, 0.4)

	lo, hi = valueRange([]types.ShapContribution{{Value: -0.5}})
	assert.Less(t, lo, -0.5)
	assert.Equal(t, 0.0, hi)
}

func TestChartFormat_ContentType(t *testing.T) {
	assert.Equal(t, "image/svg+xml", FormatSVG.ContentType())
	assert.Equal(t, "image/png", FormatPNG.ContentType())
}

package render

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/models"
	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/store"
	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/math/fixed"
)

func TestBarWidth(t *testing.T) {
	tests := []struct {
		name string
		gdp  float64
		top  float64
		want int
	}{
		{name: "Top bar spans max width", gdp: 800, top: 800, want: MaxBarWidth},
		{name: "Half of top", gdp: 400, top: 800, want: MaxBarWidth / 2},
		{name: "Zero top gdp", gdp: 0, top: 0, want: 0},
		{name: "Zero gdp", gdp: 0, top: 800, want: 0},
		{name: "Never exceeds max", gdp: 1000, top: 800, want: MaxBarWidth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BarWidth(tt.gdp, tt.top, MaxBarWidth))
		})
	}
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "1. Nigeria - 1,234,567.89", Label(1, "Nigeria", 1234567.891))
	assert.Equal(t, "2. Ghana - 1,234,567.80", Label(2, "Ghana", 1234567.8))
	assert.Equal(t, "5. Chad - 0.00", Label(5, "Chad", 0))
}

func TestFitLabel(t *testing.T) {
	face, err := newFace(gobold.TTF, 26)
	require.NoError(t, err)

	assert.Equal(t, "1. Chad - 10.00", fitLabel(face, 1, "Chad", 10, maxLabelWidth))

	long := "The United Kingdom of Great Britain and Northern Ireland"
	label := fitLabel(face, 1, long, 123456789012345, maxLabelWidth)
	assert.LessOrEqual(t, font.MeasureString(face, label), fixed.I(maxLabelWidth))
	assert.True(t, strings.HasPrefix(label, "1. The United"), label)
	assert.True(t, strings.HasSuffix(label, "… - 123,456,789,012,345.00"), label)
}

func TestBarsSitBelowLabels(t *testing.T) {
	// The previous row's bar must end above the next label's ascenders.
	assert.Less(t, barOffset+barHeight, barSpacing-26)
	assert.LessOrEqual(t, barStartY+(TopN-1)*barSpacing+barOffset+barHeight, Height)
}

func TestDrawHasFixedSize(t *testing.T) {
	img, err := Draw(Summary{})
	require.NoError(t, err)
	assert.Equal(t, Width, img.Bounds().Dx())
	assert.Equal(t, Height, img.Bounds().Dy())
}

func TestDrawBarsScaleToTopGDP(t *testing.T) {
	img, err := Draw(Summary{
		TotalCountries: 2,
		Top: []models.Country{
			{Name: "First", EstimatedGDP: 1000},
			{Name: "Second", EstimatedGDP: 0},
		},
	})
	require.NoError(t, err)

	// Inside the leader's bar the gold overlay raises the red channel above the gradient.
	background, err := Draw(Summary{})
	require.NoError(t, err)
	x, y := barX+MaxBarWidth-5, barStartY+barOffset+barHeight/2
	r, _, _, _ := img.At(x, y).RGBA()
	bgR, _, _, _ := background.At(x, y).RGBA()
	assert.Greater(t, r, bgR)

	// The zero-GDP row draws no bar.
	x, y = barX+10, barStartY+barSpacing+barOffset+barHeight/2
	assert.Equal(t, background.At(x, y), img.At(x, y))
}

func TestRenderSummaryWritesPNG(t *testing.T) {
	db := testutil.OpenTestDB(t)
	countryStore := store.NewCountryStore(db)
	ctx := context.Background()

	for i, gdp := range []float64{100, 900, 300, 700, 500, 50} {
		require.NoError(t, countryStore.Upsert(ctx, &models.Country{
			Name:            string(rune('A' + i)),
			NameNormalized:  string(rune('a' + i)),
			Population:      1,
			EstimatedGDP:    gdp,
			LastRefreshedAt: time.Now().UTC(),
		}))
	}
	require.NoError(t, countryStore.TouchMeta(ctx, time.Now().UTC()))

	dir := filepath.Join(t.TempDir(), "cache")
	renderer := NewSummaryRenderer(countryStore, dir)

	data, err := renderer.RenderSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ImageFileName), renderer.Path())

	onDisk, err := os.ReadFile(renderer.Path())
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)

	img, err := png.Decode(bytes.NewReader(onDisk))
	require.NoError(t, err)
	assert.Equal(t, Width, img.Bounds().Dx())
	assert.Equal(t, Height, img.Bounds().Dy())

	// Rendering again overwrites in place and leaves no temp files behind.
	_, err = renderer.RenderSummary(ctx)
	require.NoError(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRenderSummaryWithEmptyStore(t *testing.T) {
	countryStore := store.NewCountryStore(testutil.OpenTestDB(t))
	renderer := NewSummaryRenderer(countryStore, t.TempDir())

	data, err := renderer.RenderSummary(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

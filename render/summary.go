package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/models"
	"github.com/dustin/go-humanize"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	ImageFileName = "summary.png"

	Width       = 900
	Height      = 500
	TopN        = 5
	MaxBarWidth = 500

	textX      = 50
	barX       = textX
	barStartY  = 180
	barOffset  = 8
	barHeight  = 14
	barSpacing = 50

	// maxLabelWidth keeps a label inside the canvas margins.
	maxLabelWidth = Width - 2*textX
)

var (
	gradientFrom = color.RGBA{0x89, 0xf7, 0xfe, 0xff}
	gradientTo   = color.RGBA{0x66, 0xa6, 0xff, 0xff}
	textWhite    = color.RGBA{0xff, 0xff, 0xff, 0xff}
	textGold     = color.RGBA{0xff, 0xd7, 0x00, 0xff}
	barWhite     = color.NRGBA{0xff, 0xff, 0xff, 0x99}
	barGold      = color.NRGBA{0xff, 0xd7, 0x00, 0x99}
)

// Source is the read side of the data store the renderer projects.
type Source interface {
	Count(ctx context.Context) (int64, error)
	TopByGDP(ctx context.Context, limit int) ([]models.Country, error)
	LastRefreshedAt(ctx context.Context) (*time.Time, error)
}

// Summary is everything drawn on the image.
type Summary struct {
	TotalCountries  int64
	LastRefreshedAt *time.Time
	Top             []models.Country
}

type SummaryRenderer struct {
	source Source
	path   string
}

func NewSummaryRenderer(source Source, cacheDir string) *SummaryRenderer {
	return &SummaryRenderer{
		source: source,
		path:   filepath.Join(cacheDir, ImageFileName),
	}
}

// Path is where the last rendered image is cached.
func (r *SummaryRenderer) Path() string {
	return r.path
}

// RenderSummary draws the current store contents and overwrites the cached PNG.
func (r *SummaryRenderer) RenderSummary(ctx context.Context) ([]byte, error) {
	total, err := r.source.Count(ctx)
	if err != nil {
		return nil, err
	}
	top, err := r.source.TopByGDP(ctx, TopN)
	if err != nil {
		return nil, err
	}
	refreshedAt, err := r.source.LastRefreshedAt(ctx)
	if err != nil {
		return nil, err
	}

	img, err := Draw(Summary{TotalCountries: total, LastRefreshedAt: refreshedAt, Top: top})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode summary image: %w", err)
	}
	if err := writeFileAtomic(r.path, buf.Bytes()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Draw renders the summary onto a fixed-size canvas.
func Draw(s Summary) (*image.RGBA, error) {
	header, err := newFace(gobold.TTF, 32)
	if err != nil {
		return nil, err
	}
	title, err := newFace(gobold.TTF, 28)
	if err != nil {
		return nil, err
	}
	leader, err := newFace(gobold.TTF, 26)
	if err != nil {
		return nil, err
	}
	body, err := newFace(goregular.TTF, 24)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	fillGradient(img)

	lastRefreshed := "N/A"
	if ts := models.FormatTimestamp(s.LastRefreshedAt); ts != nil {
		lastRefreshed = *ts
	}
	drawText(img, header, textWhite, textX, 50, fmt.Sprintf("Total Countries: %d", s.TotalCountries))
	drawText(img, header, textWhite, textX, 100, "Last Refreshed: "+lastRefreshed)
	drawText(img, title, textWhite, textX, 150, fmt.Sprintf("Top %d Countries by GDP", TopN))

	var topGDP float64
	if len(s.Top) > 0 {
		topGDP = s.Top[0].EstimatedGDP
	}
	for i, c := range s.Top {
		if i >= TopN {
			break
		}
		y := barStartY + i*barSpacing
		face, textColor, barColor := body, textWhite, barWhite
		if i == 0 {
			face, textColor, barColor = leader, textGold, barGold
		}

		drawText(img, face, textColor, textX, y, fitLabel(face, i+1, c.Name, c.EstimatedGDP, maxLabelWidth))

		// The bar sits under its label so long labels never run into it.
		width := BarWidth(c.EstimatedGDP, topGDP, MaxBarWidth)
		if width > 0 {
			rect := image.Rect(barX, y+barOffset, barX+width, y+barOffset+barHeight)
			draw.Draw(img, rect, image.NewUniform(barColor), image.Point{}, draw.Over)
		}
	}

	return img, nil
}

// Label is the "rank. name - gdp" line drawn next to each bar.
func Label(rank int, name string, gdp float64) string {
	return fmt.Sprintf("%d. %s - %s", rank, name, humanize.FormatFloat("#,###.##", gdp))
}

// fitLabel shortens the country name with an ellipsis until the label fits maxWidth pixels.
func fitLabel(face font.Face, rank int, name string, gdp float64, maxWidth int) string {
	label := Label(rank, name, gdp)
	runes := []rune(name)
	for len(runes) > 0 && font.MeasureString(face, label) > fixed.I(maxWidth) {
		runes = runes[:len(runes)-1]
		label = Label(rank, string(runes)+"…", gdp)
	}
	return label
}

// BarWidth scales gdp against the top GDP; the top bar spans maxWidth pixels.
// A non-positive top GDP gives every bar zero width.
func BarWidth(gdp, top float64, maxWidth int) int {
	if top <= 0 || gdp <= 0 {
		return 0
	}
	return min(int(gdp/top*float64(maxWidth)), maxWidth)
}

func newFace(ttf []byte, size float64) (font.Face, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("load font face: %w", err)
	}
	return face, nil
}

func drawText(img draw.Image, face font.Face, c color.Color, x, y int, text string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// fillGradient paints a diagonal linear gradient from the top-left corner.
func fillGradient(img *image.RGBA) {
	bounds := img.Bounds()
	span := float64(bounds.Dx() + bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			t := float64(x+y) / span
			img.SetRGBA(x, y, color.RGBA{
				R: lerp(gradientFrom.R, gradientTo.R, t),
				G: lerp(gradientFrom.G, gradientTo.G, t),
				B: lerp(gradientFrom.B, gradientTo.B, t),
				A: 0xff,
			})
		}
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".summary-*.png")
	if err != nil {
		return fmt.Errorf("create temp image: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp image: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace summary image: %w", err)
	}
	return nil
}

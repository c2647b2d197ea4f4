// Package export renders paint-order-faithful snapshots of a canvas to SVG
// or PNG. Shapes are drawn backmost first so the image matches what the
// editor shows; hidden shapes are skipped.
package export

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/sync/errgroup"

	"github.com/MateenKhan/tracedraw/pkg/canvas"
	"github.com/MateenKhan/tracedraw/pkg/debug"
)

// Options controls snapshot export behaviour.
type Options struct {
	Path   string  // Output path; format inferred from extension when Format empty
	Format string  // "svg" or "png" (case-insensitive). If empty, inferred from Path.
	Title  string  // Optional title rendered in the header strip
	Scale  float64 // PNG pixel scale; <= 0 means 1
}

// Save renders the canvas to the path given in opts.
func Save(cv *canvas.Canvas, opts Options) error {
	start := time.Now()
	defer func() { debug.LogTiming("export "+opts.Path, time.Since(start)) }()

	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".png":
			format = "png"
		case ".svg":
			format = "svg"
		default:
			format = "svg" // safe default
			if opts.Path != "" && filepath.Ext(opts.Path) == "" {
				opts.Path = opts.Path + ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	layout := buildLayout(cv, opts)

	switch format {
	case "svg":
		return renderSVGFile(opts.Path, layout)
	default:
		return renderPNG(opts, layout)
	}
}

// ExportAll renders both an SVG and a PNG snapshot of the canvas into dir,
// named <name>.svg and <name>.png, concurrently. The first failure cancels
// the other render.
func ExportAll(ctx context.Context, cv *canvas.Canvas, dir, name string, opts Options) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, format := range []string{"svg", "png"} {
		format := format
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			o := opts
			o.Format = format
			o.Path = filepath.Join(dir, name+"."+format)
			return Save(cv, o)
		})
	}
	return g.Wait()
}

// --- layout ----------------------------------------------------------------

const (
	padding      = 24.0
	headerHeight = 48.0
	minWidth     = 320
	minHeight    = 240
)

type layout struct {
	Shapes  []*canvas.Shape // visible, ascending paint order
	OffsetX float64         // translation applied to shape coordinates
	OffsetY float64
	Width   int
	Height  int
	Title   string
	Total   int // all shapes, hidden included
}

func buildLayout(cv *canvas.Canvas, opts Options) layout {
	all := cv.Shapes()
	var visible []*canvas.Shape
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, s := range all {
		if !s.Visible {
			continue
		}
		visible = append(visible, s)
		x0, y0, x1, y1 := shapeBounds(s)
		minX = math.Min(minX, x0)
		minY = math.Min(minY, y0)
		maxX = math.Max(maxX, x1)
		maxY = math.Max(maxY, y1)
	}
	if len(visible) == 0 {
		minX, minY, maxX, maxY = 0, 0, 0, 0
	}

	width := int(maxX-minX) + int(padding*2)
	if width < minWidth {
		width = minWidth
	}
	height := int(maxY-minY) + int(padding*2+headerHeight)
	if height < minHeight {
		height = minHeight
	}

	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = "Drawing"
	}

	return layout{
		Shapes:  visible,
		OffsetX: padding - minX,
		OffsetY: padding + headerHeight - minY,
		Width:   width,
		Height:  height,
		Title:   title,
		Total:   len(all),
	}
}

func shapeBounds(s *canvas.Shape) (x0, y0, x1, y1 float64) {
	if s.Kind == "path" && len(s.Points) > 0 {
		x0, y0 = math.Inf(1), math.Inf(1)
		x1, y1 = math.Inf(-1), math.Inf(-1)
		for _, p := range s.Points {
			x0 = math.Min(x0, s.X+p.X)
			y0 = math.Min(y0, s.Y+p.Y)
			x1 = math.Max(x1, s.X+p.X)
			y1 = math.Max(y1, s.Y+p.Y)
		}
		return x0, y0, x1, y1
	}
	return s.X, s.Y, s.X + s.W, s.Y + s.H
}

// --- rendering -------------------------------------------------------------

var (
	colorBackdrop = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorFallback = color.RGBA{0x88, 0x88, 0x88, 0xff}
)

func renderSVGFile(path string, l layout) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return renderSVG(file, l)
}

func renderSVG(w io.Writer, l layout) error {
	c := svg.New(w)
	c.Start(l.Width, l.Height)
	c.Rect(0, 0, l.Width, l.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	c.Rect(0, 0, l.Width, int(headerHeight), fmt.Sprintf("fill:%s", css(colorHeaderBG)))
	c.Text(16, 20, l.Title, fmt.Sprintf("fill:%s;font-size:14px;font-family:monospace;font-weight:bold", css(colorText)))
	c.Text(16, 38, fmt.Sprintf("shapes: %d visible of %d", len(l.Shapes), l.Total),
		fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace", css(colorSubtle)))

	for _, s := range l.Shapes {
		x := s.X + l.OffsetX
		y := s.Y + l.OffsetY
		style := svgStyle(s)
		switch s.Kind {
		case "ellipse":
			c.Ellipse(int(x+s.W/2), int(y+s.H/2), int(s.W/2), int(s.H/2), style)
		case "path":
			xs := make([]int, len(s.Points))
			ys := make([]int, len(s.Points))
			for i, p := range s.Points {
				xs[i] = int(x + p.X)
				ys[i] = int(y + p.Y)
			}
			c.Polyline(xs, ys, style)
		case "text":
			c.Text(int(x), int(y), s.Text,
				fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", orDefault(s.Fill, css(colorText))))
		default: // rect
			c.Rect(int(x), int(y), int(s.W), int(s.H), style)
		}
	}

	c.End()
	return nil
}

func renderPNG(opts Options, l layout) error {
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	dc := gg.NewContext(int(float64(l.Width)*scale), int(float64(l.Height)*scale))
	dc.Scale(scale, scale)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRectangle(0, 0, float64(l.Width), headerHeight)
	dc.Fill()
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(colorText)
	dc.DrawStringAnchored(l.Title, 16, 20, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(fmt.Sprintf("shapes: %d visible of %d", len(l.Shapes), l.Total), 16, 38, 0, 0.5)

	for _, s := range l.Shapes {
		drawShape(dc, s, l.OffsetX, l.OffsetY)
	}

	return dc.SavePNG(opts.Path)
}

func drawShape(dc *gg.Context, s *canvas.Shape, ox, oy float64) {
	x := s.X + ox
	y := s.Y + oy
	switch s.Kind {
	case "ellipse":
		dc.DrawEllipse(x+s.W/2, y+s.H/2, s.W/2, s.H/2)
	case "path":
		if len(s.Points) == 0 {
			return
		}
		dc.NewSubPath()
		dc.MoveTo(x+s.Points[0].X, y+s.Points[0].Y)
		for _, p := range s.Points[1:] {
			dc.LineTo(x+p.X, y+p.Y)
		}
	case "text":
		dc.SetColor(parseColor(s.Fill, colorText))
		dc.DrawStringAnchored(s.Text, x, y, 0, 0.5)
		return
	default: // rect
		dc.DrawRectangle(x, y, s.W, s.H)
	}

	if s.Kind != "path" && s.Fill != "" && s.Fill != "none" {
		dc.SetColor(parseColor(s.Fill, colorFallback))
		dc.FillPreserve()
	}
	if s.Stroke != "" && s.Stroke != "none" {
		dc.SetColor(parseColor(s.Stroke, colorFallback))
		width := s.StrokeWidth
		if width <= 0 {
			width = 1
		}
		dc.SetLineWidth(width)
		dc.Stroke()
	} else {
		dc.ClearPath()
	}
}

// --- helpers ---------------------------------------------------------------

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func svgStyle(s *canvas.Shape) string {
	fill := orDefault(s.Fill, "none")
	if s.Kind == "path" {
		fill = "none"
	}
	stroke := orDefault(s.Stroke, "none")
	width := s.StrokeWidth
	if stroke != "none" && width <= 0 {
		width = 1
	}
	return fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%g", fill, stroke, width)
}

// parseColor parses "#rgb" and "#rrggbb" CSS colors, falling back to def for
// anything it does not understand.
func parseColor(s string, def color.RGBA) color.RGBA {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		return def
	}
	hex := s[1:]
	var r, g, b uint8
	switch len(hex) {
	case 3:
		if _, err := fmt.Sscanf(hex, "%1x%1x%1x", &r, &g, &b); err != nil {
			return def
		}
		return color.RGBA{r * 17, g * 17, b * 17, 0xff}
	case 6:
		if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
			return def
		}
		return color.RGBA{r, g, b, 0xff}
	default:
		return def
	}
}

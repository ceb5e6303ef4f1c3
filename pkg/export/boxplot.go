package export

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/vanderheijden86/chemoscope/pkg/model"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"
	"gonum.org/v1/gonum/stat"
)

// BoxplotOptions controls boxplot grid rendering. One facet is drawn per
// compound, comparing concentration distributions across conditions.
type BoxplotOptions struct {
	Path      string // Output path; format inferred from extension when Format empty
	Format    string // "svg" or "png" (case-insensitive)
	Title     string
	Dataset   *model.Dataset // Original long-format observations
	Compounds []string       // Facet order, usually the top-N ranking
	Width     int            // Pixels; 0 means 1100
	Height    int            // Pixels; 0 derives from the facet row count
}

// SaveBoxplots renders per-compound boxplot facets to SVG or PNG. Compounds
// absent from the dataset are skipped, so a top-N request larger than the
// compound count renders exactly the available facets.
func SaveBoxplots(opts BoxplotOptions) error {
	if opts.Dataset == nil {
		return fmt.Errorf("dataset is required for boxplot export")
	}
	path, format, err := resolveFormat(opts.Path, opts.Format)
	if err != nil {
		return err
	}
	opts.Path = path

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	layout := buildBoxplotLayout(opts)
	if len(layout.Facets) == 0 {
		return fmt.Errorf("no requested compound appears in the dataset")
	}

	switch format {
	case "svg":
		file, err := os.Create(opts.Path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer file.Close()
		return renderBoxplotSVG(file, layout)
	case "png":
		return renderBoxplotPNG(opts.Path, layout)
	default:
		return fmt.Errorf("unhandled format %q", format)
	}
}

// RenderBoxplotSVG renders the boxplot grid as SVG to a writer.
func RenderBoxplotSVG(w io.Writer, opts BoxplotOptions) error {
	if opts.Dataset == nil {
		return fmt.Errorf("dataset is required for boxplot export")
	}
	layout := buildBoxplotLayout(opts)
	if len(layout.Facets) == 0 {
		return fmt.Errorf("no requested compound appears in the dataset")
	}
	return renderBoxplotSVG(w, layout)
}

// --- layout computation ----------------------------------------------------

// boxStats is the five-number summary of one condition group plus the
// points beyond the whiskers.
type boxStats struct {
	Condition string
	Color     int // palette index
	Q1        float64
	Median    float64
	Q3        float64
	Lo, Hi    float64 // whisker ends (1.5 IQR rule, clamped to data)
	Outliers  []float64
}

type boxGlyph struct {
	// pixel-space geometry
	X, W                     float64
	Q1Y, MedY, Q3Y, LoY, HiY float64
	Color                    int
	Outliers                 []float64 // y pixels
	Label                    string
}

type boxplotFacet struct {
	Compound     string
	X, Y, W, H   float64 // facet plot area in pixels
	Boxes        []boxGlyph
	AxisMin      float64 // data-space for tick labels
	AxisMax      float64
}

type boxplotLayout struct {
	Width, Height int
	Title         string
	Facets        []boxplotFacet
}

func buildBoxplotLayout(opts BoxplotOptions) boxplotLayout {
	const (
		facetCols  = 3
		facetGapX  = 28.0
		facetGapY  = 46.0
		facetPadL  = 52.0
		facetPadB  = 34.0
		headerH    = 48.0
		marginSide = 24.0
	)

	// Global condition order fixes colors across facets.
	condIdx := make(map[string]int)
	for i, c := range opts.Dataset.Conditions() {
		condIdx[c] = i
	}

	// Keep only compounds that actually appear, in the requested order.
	var kept []string
	for _, name := range opts.Compounds {
		if _, groups := opts.Dataset.ConcentrationsBy(name); len(groups) > 0 {
			kept = append(kept, name)
		}
	}

	width := opts.Width
	if width <= 0 {
		width = 1100
	}
	cols := facetCols
	if len(kept) < cols {
		cols = len(kept)
	}
	if cols == 0 {
		cols = 1
	}
	rows := (len(kept) + cols - 1) / cols

	facetW := (float64(width) - 2*marginSide - float64(cols-1)*facetGapX) / float64(cols)
	facetH := 220.0
	height := opts.Height
	if height <= 0 {
		height = int(headerH + float64(rows)*(facetH+facetGapY))
	} else if rows > 0 {
		facetH = (float64(height) - headerH - float64(rows)*facetGapY) / float64(rows)
	}

	layout := boxplotLayout{Width: width, Height: height, Title: opts.Title}

	for fi, name := range kept {
		conditions, groups := opts.Dataset.ConcentrationsBy(name)

		col := fi % cols
		row := fi / cols
		fx := marginSide + float64(col)*(facetW+facetGapX) + facetPadL
		fy := headerH + float64(row)*(facetH+facetGapY)
		fw := facetW - facetPadL
		fh := facetH - facetPadB

		var stats []boxStats
		dataMin, dataMax := math.Inf(1), math.Inf(-1)
		for gi, vals := range groups {
			bs := summarize(vals)
			bs.Condition = conditions[gi]
			bs.Color = condIdx[conditions[gi]]
			stats = append(stats, bs)
			for _, v := range vals {
				dataMin = math.Min(dataMin, v)
				dataMax = math.Max(dataMax, v)
			}
		}
		if dataMax <= dataMin {
			dataMax = dataMin + 1
		}
		span := dataMax - dataMin
		axisMin := dataMin - span*0.06
		axisMax := dataMax + span*0.06

		py := func(v float64) float64 {
			return fy + fh - (v-axisMin)/(axisMax-axisMin)*fh
		}

		facet := boxplotFacet{
			Compound: name,
			X:        fx, Y: fy, W: fw, H: fh,
			AxisMin: axisMin,
			AxisMax: axisMax,
		}

		slot := fw / float64(len(stats))
		boxW := math.Min(slot*0.55, 54)
		for bi, bs := range stats {
			cx := fx + slot*(float64(bi)+0.5)
			g := boxGlyph{
				X:     cx,
				W:     boxW,
				Q1Y:   py(bs.Q1),
				MedY:  py(bs.Median),
				Q3Y:   py(bs.Q3),
				LoY:   py(bs.Lo),
				HiY:   py(bs.Hi),
				Color: bs.Color,
				Label: bs.Condition,
			}
			for _, o := range bs.Outliers {
				g.Outliers = append(g.Outliers, py(o))
			}
			facet.Boxes = append(facet.Boxes, g)
		}
		layout.Facets = append(layout.Facets, facet)
	}

	return layout
}

// summarize computes quartiles, 1.5-IQR whiskers and outliers for one
// condition group.
func summarize(vals []float64) boxStats {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	var bs boxStats
	switch len(sorted) {
	case 0:
		return bs
	case 1:
		v := sorted[0]
		return boxStats{Q1: v, Median: v, Q3: v, Lo: v, Hi: v}
	}

	bs.Q1 = stat.Quantile(0.25, stat.Empirical, sorted, nil)
	bs.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	bs.Q3 = stat.Quantile(0.75, stat.Empirical, sorted, nil)

	iqr := bs.Q3 - bs.Q1
	loFence := bs.Q1 - 1.5*iqr
	hiFence := bs.Q3 + 1.5*iqr

	bs.Lo, bs.Hi = bs.Q3, bs.Q1
	for _, v := range sorted {
		if v < loFence || v > hiFence {
			bs.Outliers = append(bs.Outliers, v)
			continue
		}
		if v < bs.Lo {
			bs.Lo = v
		}
		if v > bs.Hi {
			bs.Hi = v
		}
	}
	if bs.Lo > bs.Q1 {
		bs.Lo = bs.Q1
	}
	if bs.Hi < bs.Q3 {
		bs.Hi = bs.Q3
	}
	return bs
}

// --- PNG backend -----------------------------------------------------------

func renderBoxplotPNG(path string, layout boxplotLayout) error {
	dc := gg.NewContext(layout.Width, layout.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	if layout.Title != "" {
		dc.SetColor(colorText)
		dc.DrawStringAnchored(layout.Title, float64(layout.Width)/2, 20, 0.5, 0.5)
	}

	for _, f := range layout.Facets {
		dc.SetColor(colorText)
		dc.DrawStringAnchored(f.Compound, f.X+f.W/2, f.Y-12, 0.5, 0.5)

		// frame and value ticks
		dc.SetColor(colorAxis)
		dc.SetLineWidth(1)
		dc.DrawRectangle(f.X, f.Y, f.W, f.H)
		dc.Stroke()
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(fmt.Sprintf("%.3g", f.AxisMax), f.X-6, f.Y+6, 1, 0.5)
		dc.DrawStringAnchored(fmt.Sprintf("%.3g", f.AxisMin), f.X-6, f.Y+f.H-6, 1, 0.5)

		for _, b := range f.Boxes {
			c := conditionColor(b.Color)
			half := b.W / 2

			// whiskers
			dc.SetColor(colorBox)
			dc.DrawLine(b.X, b.LoY, b.X, b.Q1Y)
			dc.Stroke()
			dc.DrawLine(b.X, b.Q3Y, b.X, b.HiY)
			dc.Stroke()
			dc.DrawLine(b.X-half/2, b.LoY, b.X+half/2, b.LoY)
			dc.Stroke()
			dc.DrawLine(b.X-half/2, b.HiY, b.X+half/2, b.HiY)
			dc.Stroke()

			// box
			dc.SetColor(withAlpha(c, 0x60))
			dc.DrawRectangle(b.X-half, b.Q3Y, b.W, b.Q1Y-b.Q3Y)
			dc.Fill()
			dc.SetColor(c)
			dc.DrawRectangle(b.X-half, b.Q3Y, b.W, b.Q1Y-b.Q3Y)
			dc.Stroke()

			// median
			dc.SetLineWidth(2)
			dc.DrawLine(b.X-half, b.MedY, b.X+half, b.MedY)
			dc.Stroke()
			dc.SetLineWidth(1)

			// outliers
			for _, oy := range b.Outliers {
				dc.DrawCircle(b.X, oy, 2.5)
				dc.Stroke()
			}

			dc.SetColor(colorSubtle)
			dc.DrawStringAnchored(b.Label, b.X, f.Y+f.H+14, 0.5, 0.5)
		}
	}

	return dc.SavePNG(path)
}

// --- SVG backend -----------------------------------------------------------

func renderBoxplotSVG(w io.Writer, layout boxplotLayout) error {
	canvas := svg.New(w)
	canvas.Start(layout.Width, layout.Height)
	canvas.Rect(0, 0, layout.Width, layout.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))

	if layout.Title != "" {
		canvas.Text(layout.Width/2, 24, layout.Title,
			fmt.Sprintf("fill:%s;font-size:15px;font-family:monospace;text-anchor:middle", css(colorText)))
	}

	whisker := fmt.Sprintf("stroke:%s;stroke-width:1", css(colorBox))
	for _, f := range layout.Facets {
		canvas.Text(int(f.X+f.W/2), int(f.Y)-8, f.Compound,
			fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;text-anchor:middle", css(colorText)))
		canvas.Rect(int(f.X), int(f.Y), int(f.W), int(f.H),
			fmt.Sprintf("fill:none;stroke:%s;stroke-width:1", css(colorAxis)))
		tickStyle := fmt.Sprintf("fill:%s;font-size:10px;font-family:monospace;text-anchor:end", css(colorSubtle))
		canvas.Text(int(f.X)-6, int(f.Y)+9, fmt.Sprintf("%.3g", f.AxisMax), tickStyle)
		canvas.Text(int(f.X)-6, int(f.Y+f.H)-2, fmt.Sprintf("%.3g", f.AxisMin), tickStyle)

		for _, b := range f.Boxes {
			c := conditionColor(b.Color)
			half := b.W / 2

			canvas.Line(int(b.X), int(b.LoY), int(b.X), int(b.Q1Y), whisker)
			canvas.Line(int(b.X), int(b.Q3Y), int(b.X), int(b.HiY), whisker)
			canvas.Line(int(b.X-half/2), int(b.LoY), int(b.X+half/2), int(b.LoY), whisker)
			canvas.Line(int(b.X-half/2), int(b.HiY), int(b.X+half/2), int(b.HiY), whisker)

			canvas.Rect(int(b.X-half), int(b.Q3Y), int(b.W), int(b.Q1Y-b.Q3Y),
				fmt.Sprintf("fill:%s;fill-opacity:0.4;stroke:%s;stroke-width:1", css(c), css(c)))
			canvas.Line(int(b.X-half), int(b.MedY), int(b.X+half), int(b.MedY),
				fmt.Sprintf("stroke:%s;stroke-width:2", css(c)))

			for _, oy := range b.Outliers {
				canvas.Circle(int(b.X), int(oy), 2,
					fmt.Sprintf("fill:none;stroke:%s;stroke-width:1", css(c)))
			}

			canvas.Text(int(b.X), int(f.Y+f.H)+16, b.Label,
				fmt.Sprintf("fill:%s;font-size:10px;font-family:monospace;text-anchor:middle", css(colorSubtle)))
		}
	}

	canvas.End()
	return nil
}

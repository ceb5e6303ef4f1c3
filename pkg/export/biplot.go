package export

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/chemoscope/pkg/analysis"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultArrowScale is the fixed multiplier applied to variable arrows for
// visual legibility relative to the sample point cloud. It has no
// statistical meaning; the underlying coordinates are never rescaled.
const DefaultArrowScale = 5.0

// ellipseConfidence is the coverage level of the per-condition ellipses.
const ellipseConfidence = 0.95

// BiplotOptions controls biplot rendering.
type BiplotOptions struct {
	Path       string            // Output path; format inferred from extension when Format empty
	Format     string            // "svg" or "png" (case-insensitive)
	Title      string            // Optional title
	Result     *analysis.PCAResult
	Ranking    analysis.Ranking  // Drives label emphasis
	TopN       int               // Number of emphasised compound labels (clamped)
	ArrowScale float64           // Visual arrow multiplier; 0 means DefaultArrowScale
	Width      int               // Pixels; 0 means 960
	Height     int               // Pixels; 0 means 720
}

// SaveBiplot renders the PCA biplot (samples, condition ellipses, variable
// arrows) to SVG or PNG.
func SaveBiplot(opts BiplotOptions) error {
	if opts.Result == nil {
		return fmt.Errorf("PCA result is required for biplot export")
	}
	if opts.Result.Components() < 2 {
		return fmt.Errorf("biplot needs at least 2 components, have %d", opts.Result.Components())
	}

	path, format, err := resolveFormat(opts.Path, opts.Format)
	if err != nil {
		return err
	}
	opts.Path = path

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	layout := buildBiplotLayout(opts)

	switch format {
	case "svg":
		file, err := os.Create(opts.Path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer file.Close()
		return renderBiplotSVG(file, layout)
	case "png":
		return renderBiplotPNG(opts.Path, layout)
	default:
		return fmt.Errorf("unhandled format %q", format)
	}
}

// RenderBiplotSVG renders the biplot as SVG to a writer. Useful when the
// caller manages persistence itself.
func RenderBiplotSVG(w io.Writer, opts BiplotOptions) error {
	if opts.Result == nil {
		return fmt.Errorf("PCA result is required for biplot export")
	}
	if opts.Result.Components() < 2 {
		return fmt.Errorf("biplot needs at least 2 components, have %d", opts.Result.Components())
	}
	return renderBiplotSVG(w, buildBiplotLayout(opts))
}

// --- layout computation ----------------------------------------------------

type biplotPoint struct {
	X, Y  float64
	Label string
	Color color.RGBA
}

type biplotEllipse struct {
	CX, CY   float64
	RX, RY   float64
	AngleDeg float64 // pixel-space rotation
	Color    color.RGBA
}

type biplotArrow struct {
	X1, Y1   float64
	X2, Y2   float64
	Label    string
	Emphasis bool
}

type legendEntry struct {
	Label string
	Color color.RGBA
}

type biplotLayout struct {
	Width, Height    int
	Title            string
	XLabel, YLabel   string
	PlotX, PlotY     float64
	PlotW, PlotH     float64
	OriginX, OriginY float64 // pixel position of the data origin
	Points           []biplotPoint
	Ellipses         []biplotEllipse
	Arrows           []biplotArrow
	Legend           []legendEntry
}

func buildBiplotLayout(opts BiplotOptions) biplotLayout {
	const (
		marginLeft   = 64.0
		marginRight  = 170.0
		marginTop    = 56.0
		marginBottom = 48.0
	)

	res := opts.Result
	width := opts.Width
	if width <= 0 {
		width = 960
	}
	height := opts.Height
	if height <= 0 {
		height = 720
	}
	arrowScale := opts.ArrowScale
	if arrowScale <= 0 {
		arrowScale = DefaultArrowScale
	}

	layout := biplotLayout{
		Width:  width,
		Height: height,
		Title:  opts.Title,
		XLabel: fmt.Sprintf("PC1 (%.1f%%)", res.VarExplained[0]),
		YLabel: fmt.Sprintf("PC2 (%.1f%%)", res.VarExplained[1]),
		PlotX:  marginLeft,
		PlotY:  marginTop,
		PlotW:  float64(width) - marginLeft - marginRight,
		PlotH:  float64(height) - marginTop - marginBottom,
	}

	// Group sample coordinates by condition, keeping condition order.
	var conditions []string
	condIdx := make(map[string]int)
	groupX := make(map[string][]float64)
	groupY := make(map[string][]float64)
	for i, k := range res.Samples {
		if _, ok := condIdx[k.Condition]; !ok {
			condIdx[k.Condition] = len(conditions)
			conditions = append(conditions, k.Condition)
		}
		groupX[k.Condition] = append(groupX[k.Condition], res.IndividualCoords.At(i, 0))
		groupY[k.Condition] = append(groupY[k.Condition], res.IndividualCoords.At(i, 1))
	}
	for _, c := range conditions {
		layout.Legend = append(layout.Legend, legendEntry{Label: c, Color: conditionColor(condIdx[c])})
	}

	// Confidence ellipses in data space.
	type dataEllipse struct {
		cx, cy, r1, r2, angle float64
		color                 color.RGBA
	}
	var dataEllipses []dataEllipse
	for _, c := range conditions {
		cx, cy, r1, r2, angle, ok := confidenceEllipse(groupX[c], groupY[c], ellipseConfidence)
		if !ok {
			continue
		}
		dataEllipses = append(dataEllipses, dataEllipse{cx, cy, r1, r2, angle, conditionColor(condIdx[c])})
	}

	// Data extents: points, scaled arrow tips, ellipse bounds, origin.
	minX, maxX, minY, maxY := 0.0, 0.0, 0.0, 0.0
	include := func(x, y float64) {
		minX = math.Min(minX, x)
		maxX = math.Max(maxX, x)
		minY = math.Min(minY, y)
		maxY = math.Max(maxY, y)
	}
	for i := range res.Samples {
		include(res.IndividualCoords.At(i, 0), res.IndividualCoords.At(i, 1))
	}
	for j := range res.Compounds {
		include(res.VariableCoord(j, 0)*arrowScale, res.VariableCoord(j, 1)*arrowScale)
	}
	for _, e := range dataEllipses {
		r := math.Max(e.r1, e.r2)
		include(e.cx-r, e.cy-r)
		include(e.cx+r, e.cy+r)
	}

	// Equal scaling on both axes so ellipse geometry survives the mapping.
	const pad = 1.08
	rangeX := (maxX - minX) * pad
	rangeY := (maxY - minY) * pad
	if rangeX <= 0 {
		rangeX = 1
	}
	if rangeY <= 0 {
		rangeY = 1
	}
	scale := math.Min(layout.PlotW/rangeX, layout.PlotH/rangeY)

	midX := (minX + maxX) / 2
	midY := (minY + maxY) / 2
	cxPix := layout.PlotX + layout.PlotW/2
	cyPix := layout.PlotY + layout.PlotH/2
	px := func(x float64) float64 { return cxPix + (x-midX)*scale }
	py := func(y float64) float64 { return cyPix - (y-midY)*scale }
	layout.OriginX = px(0)
	layout.OriginY = py(0)

	for i, k := range res.Samples {
		layout.Points = append(layout.Points, biplotPoint{
			X:     px(res.IndividualCoords.At(i, 0)),
			Y:     py(res.IndividualCoords.At(i, 1)),
			Label: k.Replica,
			Color: conditionColor(condIdx[k.Condition]),
		})
	}

	for _, e := range dataEllipses {
		layout.Ellipses = append(layout.Ellipses, biplotEllipse{
			CX: px(e.cx),
			CY: py(e.cy),
			RX: e.r1 * scale,
			RY: e.r2 * scale,
			// y flips in pixel space, so the rotation flips too
			AngleDeg: -e.angle * 180 / math.Pi,
			Color:    e.color,
		})
	}

	emphasis := make(map[string]bool)
	for _, name := range opts.Ranking.Top(opts.TopN).Compounds() {
		emphasis[name] = true
	}
	for j, name := range res.Compounds {
		layout.Arrows = append(layout.Arrows, biplotArrow{
			X1:       layout.OriginX,
			Y1:       layout.OriginY,
			X2:       px(res.VariableCoord(j, 0) * arrowScale),
			Y2:       py(res.VariableCoord(j, 1) * arrowScale),
			Label:    name,
			Emphasis: emphasis[name],
		})
	}

	return layout
}

// confidenceEllipse computes the mean-centered covariance ellipse of a 2D
// point group at the given chi-squared coverage level. ok is false when the
// group is too small or degenerate.
func confidenceEllipse(xs, ys []float64, level float64) (cx, cy, r1, r2, angle float64, ok bool) {
	if len(xs) < 3 || len(xs) != len(ys) {
		return 0, 0, 0, 0, 0, false
	}
	cx = stat.Mean(xs, nil)
	cy = stat.Mean(ys, nil)
	sxx := stat.Variance(xs, nil)
	syy := stat.Variance(ys, nil)
	sxy := stat.Covariance(xs, ys, nil)

	tr := sxx + syy
	det := sxx*syy - sxy*sxy
	disc := tr*tr/4 - det
	if disc < 0 {
		disc = 0
	}
	l1 := tr/2 + math.Sqrt(disc)
	l2 := tr/2 - math.Sqrt(disc)
	if l1 <= 0 || math.IsNaN(l1) {
		return 0, 0, 0, 0, 0, false
	}
	if l2 < 0 {
		l2 = 0
	}

	q := distuv.ChiSquared{K: 2}.Quantile(level)
	r1 = math.Sqrt(l1 * q)
	r2 = math.Sqrt(l2 * q)
	angle = 0.5 * math.Atan2(2*sxy, sxx-syy)
	return cx, cy, r1, r2, angle, true
}

// --- PNG backend -----------------------------------------------------------

func renderBiplotPNG(path string, layout biplotLayout) error {
	dc := gg.NewContext(layout.Width, layout.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	if layout.Title != "" {
		dc.SetColor(colorText)
		dc.DrawStringAnchored(layout.Title, float64(layout.Width)/2, layout.PlotY/2, 0.5, 0.5)
	}

	// zero axes
	dc.SetColor(colorAxis)
	dc.SetLineWidth(1)
	dc.DrawLine(layout.PlotX, layout.OriginY, layout.PlotX+layout.PlotW, layout.OriginY)
	dc.Stroke()
	dc.DrawLine(layout.OriginX, layout.PlotY, layout.OriginX, layout.PlotY+layout.PlotH)
	dc.Stroke()

	// axis titles
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(layout.XLabel, layout.PlotX+layout.PlotW/2, float64(layout.Height)-16, 0.5, 0.5)
	dc.Push()
	dc.RotateAbout(-math.Pi/2, 18, layout.PlotY+layout.PlotH/2)
	dc.DrawStringAnchored(layout.YLabel, 18, layout.PlotY+layout.PlotH/2, 0.5, 0.5)
	dc.Pop()

	// condition ellipses under the points
	for _, e := range layout.Ellipses {
		dc.Push()
		dc.Translate(e.CX, e.CY)
		dc.Rotate(e.AngleDeg * math.Pi / 180)
		dc.SetColor(withAlpha(e.Color, 0x30))
		dc.DrawEllipse(0, 0, e.RX, e.RY)
		dc.Fill()
		dc.SetColor(e.Color)
		dc.SetLineWidth(1.5)
		dc.DrawEllipse(0, 0, e.RX, e.RY)
		dc.Stroke()
		dc.Pop()
	}

	// variable arrows
	for _, a := range layout.Arrows {
		dc.SetColor(colorArrow)
		dc.SetLineWidth(1.5)
		dc.DrawLine(a.X1, a.Y1, a.X2, a.Y2)
		dc.Stroke()
		drawArrowHead(dc, a)
		if a.Emphasis {
			dc.SetColor(colorText)
		} else {
			dc.SetColor(colorSubtle)
		}
		lx, ly := arrowLabelPos(a)
		dc.DrawStringAnchored(a.Label, lx, ly, 0.5, 0.5)
	}

	// sample points
	for _, p := range layout.Points {
		dc.SetColor(p.Color)
		dc.DrawCircle(p.X, p.Y, 4)
		dc.Fill()
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(p.Label, p.X+7, p.Y-7, 0, 0.5)
	}

	// legend
	lx := float64(layout.Width) - 150
	ly := layout.PlotY + 8
	dc.SetColor(colorText)
	dc.DrawStringAnchored("Condition", lx, ly, 0, 0.5)
	for i, le := range layout.Legend {
		y := ly + 20 + float64(i)*18
		dc.SetColor(le.Color)
		dc.DrawCircle(lx+7, y, 5)
		dc.Fill()
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(le.Label, lx+20, y, 0, 0.5)
	}

	return dc.SavePNG(path)
}

// drawArrowHead fills a small triangle at the arrow tip, oriented along the
// arrow direction.
func drawArrowHead(dc *gg.Context, a biplotArrow) {
	dx := a.X2 - a.X1
	dy := a.Y2 - a.Y1
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	ux, uy := dx/l, dy/l
	const size = 7.0
	bx := a.X2 - ux*size
	by := a.Y2 - uy*size
	dc.SetColor(colorArrow)
	dc.NewSubPath()
	dc.MoveTo(a.X2, a.Y2)
	dc.LineTo(bx-uy*size/2, by+ux*size/2)
	dc.LineTo(bx+uy*size/2, by-ux*size/2)
	dc.ClosePath()
	dc.Fill()
}

func arrowLabelPos(a biplotArrow) (float64, float64) {
	dx := a.X2 - a.X1
	dy := a.Y2 - a.Y1
	l := math.Hypot(dx, dy)
	if l == 0 {
		return a.X2, a.Y2 - 10
	}
	return a.X2 + dx/l*14, a.Y2 + dy/l*14
}

// --- SVG backend -----------------------------------------------------------

func renderBiplotSVG(w io.Writer, layout biplotLayout) error {
	canvas := svg.New(w)
	canvas.Start(layout.Width, layout.Height)
	canvas.Rect(0, 0, layout.Width, layout.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))

	if layout.Title != "" {
		canvas.Text(layout.Width/2, int(layout.PlotY/2),
			layout.Title,
			fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;text-anchor:middle", css(colorText)))
	}

	// zero axes
	axisStyle := fmt.Sprintf("stroke:%s;stroke-width:1", css(colorAxis))
	canvas.Line(int(layout.PlotX), int(layout.OriginY), int(layout.PlotX+layout.PlotW), int(layout.OriginY), axisStyle)
	canvas.Line(int(layout.OriginX), int(layout.PlotY), int(layout.OriginX), int(layout.PlotY+layout.PlotH), axisStyle)

	// axis titles
	canvas.Text(int(layout.PlotX+layout.PlotW/2), layout.Height-16, layout.XLabel,
		fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;text-anchor:middle", css(colorSubtle)))
	canvas.TranslateRotate(18, int(layout.PlotY+layout.PlotH/2), -90)
	canvas.Text(0, 0, layout.YLabel,
		fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;text-anchor:middle", css(colorSubtle)))
	canvas.Gend()

	// condition ellipses under the points
	for _, e := range layout.Ellipses {
		canvas.Gtransform(fmt.Sprintf("translate(%.1f,%.1f) rotate(%.1f)", e.CX, e.CY, e.AngleDeg))
		canvas.Ellipse(0, 0, int(e.RX), int(e.RY),
			fmt.Sprintf("fill:%s;fill-opacity:0.18;stroke:%s;stroke-width:1.5", css(e.Color), css(e.Color)))
		canvas.Gend()
	}

	// variable arrows
	for _, a := range layout.Arrows {
		canvas.Line(int(a.X1), int(a.Y1), int(a.X2), int(a.Y2),
			fmt.Sprintf("stroke:%s;stroke-width:1.5", css(colorArrow)))
		hx, hy, lx2, ly2, rx2, ry2 := arrowHeadPoints(a)
		canvas.Polygon([]int{hx, lx2, rx2}, []int{hy, ly2, ry2}, fmt.Sprintf("fill:%s", css(colorArrow)))

		lx, ly := arrowLabelPos(a)
		style := fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:middle", css(colorSubtle))
		if a.Emphasis {
			style = fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace;font-weight:bold;text-anchor:middle", css(colorText))
		}
		canvas.Text(int(lx), int(ly), a.Label, style)
	}

	// sample points
	for _, p := range layout.Points {
		canvas.Circle(int(p.X), int(p.Y), 4, fmt.Sprintf("fill:%s", css(p.Color)))
		canvas.Text(int(p.X)+7, int(p.Y)-7, p.Label,
			fmt.Sprintf("fill:%s;font-size:10px;font-family:monospace", css(colorSubtle)))
	}

	// legend
	lx := layout.Width - 150
	ly := int(layout.PlotY) + 8
	canvas.Text(lx, ly, "Condition",
		fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorText)))
	for i, le := range layout.Legend {
		y := ly + 20 + i*18
		canvas.Circle(lx+7, y, 5, fmt.Sprintf("fill:%s", css(le.Color)))
		canvas.Text(lx+20, y+4, le.Label,
			fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace", css(colorSubtle)))
	}

	canvas.End()
	return nil
}

func arrowHeadPoints(a biplotArrow) (hx, hy, lx, ly, rx, ry int) {
	dx := a.X2 - a.X1
	dy := a.Y2 - a.Y1
	l := math.Hypot(dx, dy)
	if l == 0 {
		return int(a.X2), int(a.Y2), int(a.X2), int(a.Y2), int(a.X2), int(a.Y2)
	}
	ux, uy := dx/l, dy/l
	const size = 7.0
	bx := a.X2 - ux*size
	by := a.Y2 - uy*size
	return int(a.X2), int(a.Y2),
		int(bx - uy*size/2), int(by + ux*size/2),
		int(bx + uy*size/2), int(by - ux*size/2)
}

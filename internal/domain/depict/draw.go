package depict

import (
	"bytes"
	"math"
	"strconv"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/turtacn/ClusterMST/internal/domain/molecule"
	"github.com/turtacn/ClusterMST/pkg/errors"
)

// elementColors follows the usual CPK scheme, darkened where the pure colour
// is unreadable on white.
var elementColors = map[string]string{
	"N":  "#3050f8",
	"O":  "#e00d0d",
	"S":  "#b8a000",
	"P":  "#ff8000",
	"F":  "#1fa01f",
	"Cl": "#1fa01f",
	"Br": "#a62929",
	"I":  "#940094",
	"B":  "#e08070",
	"Si": "#a08060",
	"Se": "#c08000",
}

const (
	bondColor     = "#000000"
	labelFallback = "#000000"
	background    = "#ffffff"
)

var (
	fontOnce sync.Once
	fontErr  error
	goFont   *opentype.Font
)

func loadFont() (*opentype.Font, error) {
	fontOnce.Do(func() {
		goFont, fontErr = opentype.Parse(goregular.TTF)
	})
	return goFont, fontErr
}

// newFace returns a fresh face; opentype faces are not safe for concurrent
// use.
func newFace(size float64) (font.Face, error) {
	f, err := loadFont()
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
}

// atomLabel returns the text drawn at an atom, or "" for a plain carbon.
func atomLabel(m *molecule.Molecule, i int) string {
	a := m.Atoms[i]
	plainCarbon := a.Number == 6 && a.Charge == 0 && a.Isotope == 0 && m.Degree(i) > 0
	if plainCarbon {
		return ""
	}
	label := a.Symbol
	if a.Isotope > 0 {
		label = strconv.Itoa(a.Isotope) + label
	}
	switch {
	case a.HCount == 1:
		label += "H"
	case a.HCount > 1:
		label += "H" + strconv.Itoa(a.HCount)
	}
	switch {
	case a.Charge == 1:
		label += "+"
	case a.Charge == -1:
		label += "-"
	case a.Charge > 1:
		label += strconv.Itoa(a.Charge) + "+"
	case a.Charge < -1:
		label += strconv.Itoa(-a.Charge) + "-"
	}
	return label
}

// DrawPNG renders m into a size×size PNG.
func DrawPNG(m *molecule.Molecule, size int) ([]byte, error) {
	if m == nil || m.NumAtoms() == 0 {
		return nil, errors.New(errors.ErrCodeDepictionFailed, "molecule has no atoms")
	}
	pts := Coordinates(m)
	minX, maxX, minY, maxY := bounds(pts)

	s := float64(size)
	margin := s * 0.1
	scale := s / 4 // caps the bond length of tiny molecules
	if w := maxX - minX; w > 0 {
		scale = math.Min(scale, (s-2*margin)/w)
	}
	if h := maxY - minY; h > 0 {
		scale = math.Min(scale, (s-2*margin)/h)
	}
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	project := func(p Point) (float64, float64) {
		return s/2 + (p.X-cx)*scale, s/2 - (p.Y-cy)*scale
	}

	fontSize := math.Max(8, math.Min(scale*0.45, s/12))
	face, err := newFace(fontSize)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDepictionFailed, "loading font")
	}
	defer face.Close()

	dc := gg.NewContext(size, size)
	dc.SetHexColor(background)
	dc.Clear()
	dc.SetFontFace(face)
	dc.SetLineWidth(math.Max(1, s/125))
	dc.SetLineCapRound()

	labels := make([]string, m.NumAtoms())
	for i := range labels {
		labels[i] = atomLabel(m, i)
	}
	labelGap := fontSize * 0.6

	centroid := make([]Point, m.NumAtoms())
	for _, comp := range m.Components() {
		var c Point
		for _, a := range comp {
			c.X += pts[a].X
			c.Y += pts[a].Y
		}
		c.X /= float64(len(comp))
		c.Y /= float64(len(comp))
		for _, a := range comp {
			centroid[a] = c
		}
	}

	dc.SetHexColor(bondColor)
	for _, b := range m.Bonds {
		x1, y1 := project(pts[b.From])
		x2, y2 := project(pts[b.To])
		dx, dy := x2-x1, y2-y1
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		ux, uy := dx/length, dy/length
		if labels[b.From] != "" {
			x1, y1 = x1+ux*labelGap, y1+uy*labelGap
		}
		if labels[b.To] != "" {
			x2, y2 = x2-ux*labelGap, y2-uy*labelGap
		}
		// unit normal pointing towards the fragment centre
		nx, ny := -uy, ux
		mx, my := project(centroid[b.From])
		if (mx-(x1+x2)/2)*nx+(my-(y1+y2)/2)*ny < 0 {
			nx, ny = -nx, -ny
		}
		off := scale * 0.16

		switch b.Order {
		case molecule.BondDouble:
			dc.DrawLine(x1+nx*off/2, y1+ny*off/2, x2+nx*off/2, y2+ny*off/2)
			dc.DrawLine(x1-nx*off/2, y1-ny*off/2, x2-nx*off/2, y2-ny*off/2)
			dc.Stroke()
		case molecule.BondTriple, molecule.BondQuadruple:
			dc.DrawLine(x1, y1, x2, y2)
			dc.DrawLine(x1+nx*off, y1+ny*off, x2+nx*off, y2+ny*off)
			dc.DrawLine(x1-nx*off, y1-ny*off, x2-nx*off, y2-ny*off)
			dc.Stroke()
		case molecule.BondAromatic:
			dc.DrawLine(x1, y1, x2, y2)
			dc.Stroke()
			inset := length * 0.12
			dc.SetDash(scale*0.08, scale*0.06)
			dc.DrawLine(x1+nx*off+ux*inset, y1+ny*off+uy*inset, x2+nx*off-ux*inset, y2+ny*off-uy*inset)
			dc.Stroke()
			dc.SetDash()
		default:
			dc.DrawLine(x1, y1, x2, y2)
			dc.Stroke()
		}
	}

	for i, label := range labels {
		if label == "" {
			continue
		}
		x, y := project(pts[i])
		color, ok := elementColors[m.Atoms[i].Symbol]
		if !ok {
			color = labelFallback
		}
		dc.SetHexColor(color)
		dc.DrawStringAnchored(label, x, y, 0.5, 0.35)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDepictionFailed, "encoding png")
	}
	return buf.Bytes(), nil
}

// DrawPlaceholder renders the image used for structures that cannot be
// parsed.
func DrawPlaceholder(size int, text string) ([]byte, error) {
	s := float64(size)
	face, err := newFace(math.Max(8, s/12))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDepictionFailed, "loading font")
	}
	defer face.Close()

	dc := gg.NewContext(size, size)
	dc.SetHexColor(background)
	dc.Clear()
	dc.SetHexColor("#bbbbbb")
	dc.SetLineWidth(math.Max(1, s/125))
	dc.SetDash(s/40, s/40)
	dc.DrawRectangle(s*0.1, s*0.1, s*0.8, s*0.8)
	dc.Stroke()
	dc.SetDash()
	dc.SetFontFace(face)
	dc.SetHexColor("#888888")
	dc.DrawStringAnchored(text, s/2, s/2, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDepictionFailed, "encoding placeholder")
	}
	return buf.Bytes(), nil
}

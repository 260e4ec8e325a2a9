package main

import (
	"strings"
)

// brailleBase is the code point of the empty braille cell; a packed cell
// byte is added to it to pick the glyph.
const brailleBase = 0x2800

// dotMasks assigns each sub-pixel position within a cell its braille bit,
// indexed [subY][subX].
var dotMasks = [cellPxH][cellPxW]byte{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// setPixel ORs one sub-pixel into a packed cell buffer. Out-of-range
// coordinates are clipped, not errored: a malformed component must never
// crash a redraw.
func setPixel(buf []byte, x, y, widthCells, heightCells int) {
	if x < 0 || y < 0 {
		return
	}
	cellX := x / cellPxW
	cellY := y / cellPxH
	if cellX >= widthCells || cellY >= heightCells {
		return
	}
	buf[cellY*widthCells+cellX] |= dotMasks[y%cellPxH][x%cellPxW]
}

// drawRectOutline walks the four edges of r and sets each boundary
// sub-pixel. A step of 1 draws a solid outline; a step of 2 strides every
// other sub-pixel for the dashed drag preview.
func drawRectOutline(buf []byte, r Rect, step, widthCells, heightCells int) {
	x2 := r.X + r.W - 1
	y2 := r.Y + r.H - 1
	for x := r.X; x <= x2; x += step {
		setPixel(buf, x, r.Y, widthCells, heightCells)
		setPixel(buf, x, y2, widthCells, heightCells)
	}
	for y := r.Y; y <= y2; y += step {
		setPixel(buf, r.X, y, widthCells, heightCells)
		setPixel(buf, x2, y, widthCells, heightCells)
	}
}

// rasterize clears every layer buffer, draws each component into its owning
// layer, and returns the OR-composite of all visible layers in document
// layer order. Invisible layers keep their (cleared) buffers and contribute
// nothing.
func (s *Scene) rasterize() []byte {
	wc := s.doc.Size.WidthCells
	hc := s.doc.Size.HeightCells
	for _, buf := range s.buffers {
		for i := range buf {
			buf[i] = 0
		}
	}
	visible := make(map[string]bool, len(s.doc.Layers))
	for _, l := range s.doc.Layers {
		visible[l.ID] = l.Visible
	}
	for _, c := range s.doc.Components {
		if !visible[c.LayerID] {
			continue
		}
		buf := s.buffers[c.LayerID]
		if buf == nil {
			continue
		}
		switch c.Type {
		case TypeBox, TypeImage:
			drawRectOutline(buf, c.Rect, 1, wc, hc)
		default:
			// reserved node kinds have no renderer yet
		}
	}
	composite := make([]byte, wc*hc)
	for _, l := range s.doc.Layers {
		if !l.Visible {
			continue
		}
		for i, b := range s.buffers[l.ID] {
			composite[i] |= b
		}
	}
	return composite
}

type cellState int

const (
	cellNeutral cellState = iota
	cellActive
	cellOverlay
)

func cellColorCode(c cellState) string {
	switch c {
	case cellActive:
		return colorActive
	case cellOverlay:
		return colorOverlay
	default:
		return ""
	}
}

// Render rasterizes the current document into one frame: braille glyphs
// with ANSI color runs, one row per line, newline-terminated. overlay, when
// non-nil, is drawn as a dashed outline on top of the composite and never
// touches any layer buffer. The output is a pure function of document
// state, visibility, active layer, and overlay.
func (s *Scene) Render(overlay *Rect) string {
	return s.renderFrame(overlay, true)
}

// RenderPlain renders the committed state without color escapes, for text
// export and clipboard yanks.
func (s *Scene) RenderPlain() string {
	return s.renderFrame(nil, false)
}

func (s *Scene) renderFrame(overlay *Rect, color bool) string {
	wc := s.doc.Size.WidthCells
	hc := s.doc.Size.HeightCells
	composite := s.rasterize()

	var overlayBuf []byte
	if overlay != nil {
		overlayBuf = make([]byte, wc*hc)
		drawRectOutline(overlayBuf, *overlay, 2, wc, hc)
	}

	// The active mask is the active layer's own buffer, counted only while
	// that layer is visible.
	var activeBuf []byte
	if i := s.layerIndex(s.activeLayerID); i >= 0 && s.doc.Layers[i].Visible {
		activeBuf = s.buffers[s.activeLayerID]
	}

	var out strings.Builder
	out.Grow((wc*3 + 16) * hc)
	for cy := 0; cy < hc; cy++ {
		state := cellNeutral
		for cx := 0; cx < wc; cx++ {
			i := cy*wc + cx
			var ob byte
			if overlayBuf != nil {
				ob = overlayBuf[i]
			}
			if color {
				next := cellNeutral
				switch {
				case ob != 0:
					next = cellOverlay
				case activeBuf != nil && activeBuf[i] != 0:
					next = cellActive
				}
				if next != state {
					if state != cellNeutral {
						out.WriteString(colorReset)
					}
					if next != cellNeutral {
						out.WriteString(cellColorCode(next))
					}
					state = next
				}
			}
			out.WriteRune(rune(brailleBase + int(composite[i]|ob)))
		}
		if state != cellNeutral {
			out.WriteString(colorReset)
		}
		out.WriteByte('\n')
	}
	return out.String()
}

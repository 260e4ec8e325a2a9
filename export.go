package main

import (
	"fmt"
	"image/color"
	"os"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

// ExportPNG rasterizes the committed document into a PNG, one filled square
// per set sub-pixel. A "title" entry in the document meta is drawn as a
// caption strip below the canvas.
func (s *Scene) ExportPNG(filename string) error {
	if len(s.doc.Components) == 0 {
		return fmt.Errorf("nothing to export")
	}

	composite := s.rasterize()
	wc := s.doc.Size.WidthCells

	title, _ := s.doc.Meta["title"].(string)
	captionHeight := 0
	if title != "" {
		captionHeight = 6 * pngPixelScale
	}

	imageWidth := s.WidthPx() * pngPixelScale
	imageHeight := s.HeightPx()*pngPixelScale + captionHeight

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetColor(color.Black)

	for y := 0; y < s.HeightPx(); y++ {
		for x := 0; x < s.WidthPx(); x++ {
			cell := composite[(y/cellPxH)*wc+x/cellPxW]
			if cell&dotMasks[y%cellPxH][x%cellPxW] == 0 {
				continue
			}
			dc.DrawRectangle(float64(x*pngPixelScale), float64(y*pngPixelScale),
				float64(pngPixelScale), float64(pngPixelScale))
		}
	}
	dc.Fill()

	if title != "" {
		ttfFont, err := truetype.Parse(gomono.TTF)
		if err != nil {
			return fmt.Errorf("failed to parse font: %v", err)
		}
		face := truetype.NewFace(ttfFont, &truetype.Options{
			Size:    float64(4 * pngPixelScale),
			DPI:     72,
			Hinting: font.HintingFull,
		})
		dc.SetFontFace(face)
		dc.DrawString(title, float64(pngPixelScale),
			float64(imageHeight-2*pngPixelScale))
	}

	return dc.SavePNG(filename)
}

// ExportTXT writes the plain (color-free) braille frame to a file.
func (s *Scene) ExportTXT(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString(s.RenderPlain())
	return err
}

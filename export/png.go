// Package export flattens a bubble layer over the scene render into a PNG
// for quick sharing. It is a preview, not the publishing path: no font
// shaping or rich text, just the same wrapped-text estimate the editor
// sizes bubbles with.
package export

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/milk9111/bubbleedit/bubble"
	"github.com/milk9111/bubbleedit/geom"
)

// Fallback canvas size when the scene has no approved render yet; a
// portrait webtoon frame.
const (
	fallbackW = 1080
	fallbackH = 1920
)

// PNG renders the bubbles over the background image and writes the result.
// A nil background gets a plain white frame so an annotation-only preview
// still works.
func PNG(bg image.Image, bubbles []*bubble.Bubble, outPath string) error {
	w, h := fallbackW, fallbackH
	if bg != nil {
		b := bg.Bounds()
		w, h = b.Dx(), b.Dy()
	}
	stage := geom.Size{W: float64(w), H: float64(h)}

	dc := gg.NewContext(w, h)
	dc.SetColor(color.White)
	dc.Clear()
	if bg != nil {
		dc.DrawImage(bg, 0, 0)
	}

	face, err := previewFace(stage)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)

	for _, b := range bubbles {
		drawBubble(dc, b, stage)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return dc.EncodePNG(f)
}

func previewFace(stage geom.Size) (font.Face, error) {
	ft, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse preview font: %w", err)
	}
	// Scale the font with the frame so exports at different render
	// resolutions look the same.
	size := math.Max(12, stage.W/54)
	return truetype.NewFace(ft, &truetype.Options{Size: size}), nil
}

func drawBubble(dc *gg.Context, b *bubble.Bubble, stage geom.Size) {
	r := geom.RectToPixels(b.Geometry, stage)

	if b.Tail != nil {
		drawTail(dc, r, *b.Tail, stage)
	}

	dc.SetColor(color.White)
	switch b.Kind {
	case bubble.Thought:
		dc.DrawEllipse(r.X+r.W/2, r.Y+r.H/2, r.W/2, r.H/2)
	case bubble.Narration:
		dc.DrawRectangle(r.X, r.Y, r.W, r.H)
	case bubble.SFX:
		// SFX is bare text, no balloon
	default:
		dc.DrawRoundedRectangle(r.X, r.Y, r.W, r.H, math.Min(r.W, r.H)*0.25)
	}
	if b.Kind != bubble.SFX {
		dc.FillPreserve()
		dc.SetColor(color.Black)
		dc.SetLineWidth(2)
		dc.Stroke()
	}

	dc.SetColor(color.Black)
	text := b.Text
	if b.Speaker != "" && b.Kind == bubble.Narration {
		text = b.Speaker + ": " + text
	}
	pad := math.Min(r.W, r.H) * 0.12
	dc.DrawStringWrapped(text, r.X+r.W/2, r.Y+r.H/2, 0.5, 0.5, r.W-2*pad, 1.3, gg.AlignCenter)
}

// drawTail draws the pointer from the bubble edge toward the tail anchor
// as a filled triangle based on the bubble's nearest edge midpoint.
func drawTail(dc *gg.Context, r geom.Rect, tail geom.Point, stage geom.Size) {
	tip := geom.ToPixels(tail, stage)
	cx, cy := r.X+r.W/2, r.Y+r.H/2

	// base of the triangle sits on the line from center to tip, with a
	// width proportional to the bubble
	dx, dy := tip.X-cx, tip.Y-cy
	dist := math.Hypot(dx, dy)
	if dist < 1 {
		return
	}
	// perpendicular unit vector
	px, py := -dy/dist, dx/dist
	baseW := math.Min(r.W, r.H) * 0.18

	dc.SetColor(color.White)
	dc.MoveTo(cx+px*baseW, cy+py*baseW)
	dc.LineTo(cx-px*baseW, cy-py*baseW)
	dc.LineTo(tip.X, tip.Y)
	dc.ClosePath()
	dc.FillPreserve()
	dc.SetColor(color.Black)
	dc.SetLineWidth(2)
	dc.Stroke()
}

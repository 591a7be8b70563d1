package view

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/charmbracelet/lipgloss"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultArtWidth is the preview width in terminal cells.
const DefaultArtWidth = 40

// DecodeThumbnail decodes PNG, JPEG, GIF, BMP or WebP image data.
func DecodeThumbnail(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode thumbnail: %w", err)
	}
	return img, nil
}

// Fit returns the largest width x height (in pixels) no bigger than maxW by
// maxH that keeps the aspect ratio of src. Both are at least 1.
func Fit(src image.Rectangle, maxW, maxH int) (int, int) {
	w, h := src.Dx(), src.Dy()
	if w <= 0 || h <= 0 || maxW <= 0 || maxH <= 0 {
		return 1, 1
	}
	if w <= maxW && h <= maxH {
		return w, h
	}
	// Compare ratios without floating point: w/h vs maxW/maxH.
	if w*maxH >= h*maxW {
		return maxW, max(1, h*maxW/w)
	}
	return max(1, w*maxH/h), maxH
}

// Art renders img as half-block terminal art at most width cells wide. Each
// cell shows two vertically stacked pixels: the upper as foreground of "▀",
// the lower as background.
func Art(img image.Image, width int) string {
	if width <= 0 {
		width = DefaultArtWidth
	}
	// Terminal cells are roughly twice as tall as wide, and each cell holds
	// two pixel rows, so a square image of width w needs w pixel rows.
	w, h := Fit(img.Bounds(), width, width)
	if h%2 == 1 {
		h++
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	var b strings.Builder
	for y := 0; y < h; y += 2 {
		for x := range w {
			top := hexColor(dst.At(x, y))
			bottom := hexColor(dst.At(x, y+1))
			b.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(top)).
				Background(lipgloss.Color(bottom)).
				Render("▀"))
		}
		if y+2 < h {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

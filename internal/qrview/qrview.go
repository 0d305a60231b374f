package qrview

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"golang.org/x/image/draw"
)

// ErrEmptyImage is returned for a decodable image with no pixels.
var ErrEmptyImage = errors.New("qr image is empty")

const darkThreshold = 128

type Options struct {
	// MaxWidth caps the rendered width in terminal cells. Zero means no cap.
	MaxWidth int
	// Invert draws dark modules as blank cells, for light-on-dark terminals.
	Invert bool
}

// Render decodes a QR image and draws it with half-block characters, two
// pixel rows per text line.
func Render(data []byte, opts Options) (string, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode qr image: %w", err)
	}

	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return "", ErrEmptyImage
	}

	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Bounds(), src, bounds.Min, draw.Src)

	cols, rows := gridSize(gray)
	if opts.MaxWidth > 0 && cols > opts.MaxWidth {
		rows = rows * opts.MaxWidth / cols
		cols = opts.MaxWidth
	}
	if rows < 1 {
		rows = 1
	}

	grid := image.NewGray(image.Rect(0, 0, cols, rows))
	draw.NearestNeighbor.Scale(grid, grid.Bounds(), gray, gray.Bounds(), draw.Src, nil)

	return halfBlocks(grid, opts.Invert), nil
}

// gridSize estimates the module grid from the first dark run, which is
// the top edge of a finder pattern and spans seven modules. Images without
// a usable run are kept at their own resolution.
func gridSize(img *image.Gray) (int, int) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		start := -1
		for x := b.Min.X; x < b.Max.X; x++ {
			dark := img.GrayAt(x, y).Y < darkThreshold
			if dark && start < 0 {
				start = x
			}
			if !dark && start >= 0 {
				module := (x - start) / 7
				if module < 1 {
					return b.Dx(), b.Dy()
				}
				return b.Dx() / module, b.Dy() / module
			}
		}
	}
	return b.Dx(), b.Dy()
}

func halfBlocks(img *image.Gray, invert bool) string {
	b := img.Bounds()
	dark := func(x int, y int) bool {
		if y >= b.Max.Y {
			return invert
		}
		return (img.GrayAt(x, y).Y < darkThreshold) != invert
	}

	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x++ {
			top, bottom := dark(x, y), dark(x, y+1)
			switch {
			case top && bottom:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bottom:
				sb.WriteRune('▄')
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

package converter

import (
	"fmt"
	"image"
	stddraw "image/draw"

	"golang.org/x/image/draw"

	"github.com/Peterliu358/Gifski/pkg/ports"
)

// extractPixels converts a decoded image into the raw interleaved RGBA
// layout the encoder expects, scaling to the target dimensions when the
// decoded frame does not match them. Alpha stays straight, not
// premultiplied.
func extractPixels(img image.Image, width, height int) (ports.PixelBuffer, error) {
	if img == nil {
		return ports.PixelBuffer{}, fmt.Errorf("no image data")
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return ports.PixelBuffer{}, fmt.Errorf("empty image %dx%d", bounds.Dx(), bounds.Dy())
	}

	if nrgba, ok := img.(*image.NRGBA); ok && bounds.Dx() == width && bounds.Dy() == height {
		return ports.PixelBuffer{
			Width:       width,
			Height:      height,
			BytesPerRow: nrgba.Stride,
			Data:        nrgba.Pix,
		}, nil
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	if bounds.Dx() == width && bounds.Dy() == height {
		stddraw.Draw(dst, dst.Bounds(), img, bounds.Min, stddraw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	}

	return ports.PixelBuffer{
		Width:       width,
		Height:      height,
		BytesPerRow: dst.Stride,
		Data:        dst.Pix,
	}, nil
}

// targetDimensions resolves the output size from the requested dimensions
// and the source size. With both sides requested each is capped at the
// source; with one side, the other keeps the aspect ratio; with neither,
// sources larger than 800x600 are shrunk by an integer factor.
func targetDimensions(srcW, srcH, reqW, reqH int) (int, int) {
	switch {
	case reqW > 0 && reqH > 0:
		return minInt(reqW, srcW), minInt(reqH, srcH)
	case reqW > 0:
		w := minInt(reqW, srcW)
		return w, srcH * w / srcW
	case reqH > 0:
		h := minInt(reqH, srcH)
		return srcW * h / srcH, h
	default:
		factor := (srcW*srcH + 800*600) / (800 * 600)
		if factor > 1 {
			return srcW / factor, srcH / factor
		}
		return srcW, srcH
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

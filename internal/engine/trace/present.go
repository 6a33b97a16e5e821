package trace

import (
	"errors"
	"image"

	"github.com/lumen-render/lumen/pkg/math"
)

// ErrPresentMismatch reports a destination image whose bounds do not match
// the accumulator's resolution.
var ErrPresentMismatch = errors.New("trace: image bounds do not match accumulator")

// Present converts the running average accum/iterations into displayable
// pixels: each channel is divided by the iteration count, clamped to
// [0, 1] and scaled to a byte. Only this presentation copy is divided and
// clamped; the accumulator itself is left untouched so later iterations
// keep adding into the same sums.
func (t *Tracer) Present(iterations int, dst *image.RGBA) error {
	w, h := t.cam.Width, t.cam.Height
	if dst.Bounds().Dx() != w || dst.Bounds().Dy() != h {
		return ErrPresentMismatch
	}
	if iterations < 1 {
		iterations = 1
	}
	inv := 1 / float64(iterations)

	parallelFor(len(t.accum), t.cfg.Workers, func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			c := t.accum[i].Scale(inv).Clamp01()
			writePixel(dst, i%w, i/w, c)
		}
	})
	return nil
}

func writePixel(dst *image.RGBA, x, y int, c math.Vec3) {
	off := dst.PixOffset(x, y)
	dst.Pix[off+0] = byte(c.X*255 + 0.5)
	dst.Pix[off+1] = byte(c.Y*255 + 0.5)
	dst.Pix[off+2] = byte(c.Z*255 + 0.5)
	dst.Pix[off+3] = 255
}

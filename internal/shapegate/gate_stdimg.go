//go:build !gocv
// +build !gocv

package shapegate

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/abhi542/MouldLensAI/internal/common"
	"github.com/abhi542/MouldLensAI/internal/entity"
)

// adaptiveC is subtracted from the local mean; stamp grooves sit well
// below the sand surface brightness, so a small offset is enough.
const adaptiveC = 10

// Evaluate is the portable backend used when the binary is built without
// the gocv tag (no OpenCV on the RPi gateway image). It mirrors the gocv
// backend: local-mean adaptive threshold, connected components, then the
// shared digit-like window filter.
func (g *Gate) Evaluate(imageData []byte) (*entity.ShapeMetrics, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, common.WrapError(common.ErrDecode, "shapegate")
	}
	gray, w, h := grayscale(img, g.cfg.MaxSide)
	if w == 0 || h == 0 {
		return nil, common.WrapError(common.ErrDecode, "shapegate: degenerate dimensions")
	}

	bin := adaptiveThreshold(gray, w, h, g.cfg.BlockSize, adaptiveC)
	boxes := connectedComponents(bin, w, h)
	return g.filterCandidates(boxes, w, h), nil
}

// grayscale converts to 8-bit luminance, downscaling so the longest side
// is at most maxSide. Nearest-neighbour sampling is plenty for a gate.
func grayscale(img image.Image, maxSide int) ([]uint8, int, int) {
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()
	if srcW == 0 || srcH == 0 {
		return nil, 0, 0
	}

	w, h := srcW, srcH
	if longest := max(srcW, srcH); longest > maxSide {
		scale := float64(maxSide) / float64(longest)
		w = int(float64(srcW) * scale)
		h = int(float64(srcH) * scale)
	}

	out := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		sy := b.Min.Y + y*srcH/h
		for x := 0; x < w; x++ {
			sx := b.Min.X + x*srcW/w
			r, gg, bb, _ := img.At(sx, sy).RGBA()
			// ITU-R BT.601 luma on 16-bit channel values.
			out[y*w+x] = uint8((299*r + 587*gg + 114*bb) / 1000 >> 8)
		}
	}
	return out, w, h
}

// adaptiveThreshold marks a pixel as foreground when it is darker than the
// local mean over a blockSize window by more than c. Computed with an
// integral image so the whole pass is O(pixels).
func adaptiveThreshold(gray []uint8, w, h, blockSize int, c int) []bool {
	integral := make([]uint64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var rowSum uint64
		for x := 0; x < w; x++ {
			rowSum += uint64(gray[y*w+x])
			integral[(y+1)*(w+1)+x+1] = integral[y*(w+1)+x+1] + rowSum
		}
	}

	half := blockSize / 2
	bin := make([]bool, w*h)
	for y := 0; y < h; y++ {
		y0, y1 := max(0, y-half), min(h-1, y+half)
		for x := 0; x < w; x++ {
			x0, x1 := max(0, x-half), min(w-1, x+half)
			count := uint64((x1 - x0 + 1) * (y1 - y0 + 1))
			sum := integral[(y1+1)*(w+1)+x1+1] - integral[y0*(w+1)+x1+1] -
				integral[(y1+1)*(w+1)+x0] + integral[y0*(w+1)+x0]
			mean := sum / count
			bin[y*w+x] = uint64(gray[y*w+x])+uint64(c) < mean
		}
	}
	return bin
}

// connectedComponents labels 4-connected foreground regions and returns
// their bounding boxes. Iterative flood fill, no recursion.
func connectedComponents(bin []bool, w, h int) []entity.CandidateBox {
	visited := make([]bool, len(bin))
	var boxes []entity.CandidateBox
	stack := make([]int, 0, 256)

	for start := range bin {
		if !bin[start] || visited[start] {
			continue
		}
		minX, minY := w, h
		maxX, maxY := 0, 0
		area := 0

		visited[start] = true
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := idx%w, idx/w
			area++
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)

			for _, n := range [4]int{idx - 1, idx + 1, idx - w, idx + w} {
				if n < 0 || n >= len(bin) {
					continue
				}
				// Horizontal neighbours must stay on the same row.
				if (n == idx-1 || n == idx+1) && n/w != y {
					continue
				}
				if bin[n] && !visited[n] {
					visited[n] = true
					stack = append(stack, n)
				}
			}
		}

		boxes = append(boxes, entity.CandidateBox{
			X:      minX,
			Y:      minY,
			Width:  maxX - minX + 1,
			Height: maxY - minY + 1,
			Area:   area,
		})
	}
	return boxes
}

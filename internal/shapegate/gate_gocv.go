//go:build gocv
// +build gocv

package shapegate

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/abhi542/MouldLensAI/internal/common"
	"github.com/abhi542/MouldLensAI/internal/entity"
)

// adaptiveC is subtracted from the local mean; stamp grooves sit well
// below the sand surface brightness, so a small offset is enough.
const adaptiveC = 10

// Evaluate binarizes the image with a local-mean adaptive threshold,
// extracts external contours, and keeps the ones whose bounding boxes
// fall inside the digit-like window.
func (g *Gate) Evaluate(imageData []byte) (*entity.ShapeMetrics, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err != nil {
		return nil, common.WrapError(common.ErrDecode, "shapegate")
	}
	if mat.Empty() {
		mat.Close()
		return nil, common.WrapError(common.ErrDecode, "shapegate")
	}

	// Normalize size so the area window holds across camera resolutions.
	if mat.Cols() > g.cfg.MaxSide || mat.Rows() > g.cfg.MaxSide {
		longest := mat.Cols()
		if mat.Rows() > longest {
			longest = mat.Rows()
		}
		scale := float64(g.cfg.MaxSide) / float64(longest)
		newW := int(float64(mat.Cols()) * scale)
		newH := int(float64(mat.Rows()) * scale)
		resized := gocv.NewMat()
		gocv.Resize(mat, &resized, image.Pt(newW, newH), 0, 0, gocv.InterpolationArea)
		mat.Close()
		mat = resized
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	// Dark stamp grooves on a lighter sand surface -> binary-inverse.
	bin := gocv.NewMat()
	defer bin.Close()
	gocv.AdaptiveThreshold(gray, &bin, 255,
		gocv.AdaptiveThresholdMean, gocv.ThresholdBinaryInv,
		g.cfg.BlockSize, adaptiveC)

	contours := gocv.FindContours(bin, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	boxes := make([]entity.CandidateBox, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		rect := gocv.BoundingRect(contours.At(i))
		boxes = append(boxes, entity.CandidateBox{
			X:      rect.Min.X,
			Y:      rect.Min.Y,
			Width:  rect.Dx(),
			Height: rect.Dy(),
			Area:   rect.Dx() * rect.Dy(),
		})
	}

	return g.filterCandidates(boxes, mat.Cols(), mat.Rows()), nil
}

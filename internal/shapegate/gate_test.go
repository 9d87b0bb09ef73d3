//go:build !gocv
// +build !gocv

package shapegate

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abhi542/MouldLensAI/internal/common"
)

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	return NewGate(common.GateConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// scene renders dark rectangles on a white background and returns PNG bytes.
func scene(t *testing.T, w, h int, rects ...image.Rectangle) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	for _, r := range rects {
		draw.Draw(img, r, image.NewUniform(color.Black), image.Point{}, draw.Src)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEvaluate_BlankImageNotPlausible(t *testing.T) {
	g := newTestGate(t)

	m, err := g.Evaluate(scene(t, 200, 200))
	require.NoError(t, err)
	require.False(t, m.Plausible)
	require.Empty(t, m.Candidates)
	require.Equal(t, 200, m.ImageWidth)
	require.Equal(t, 200, m.ImageHeight)
}

func TestEvaluate_DigitLikeBlobsArePlausible(t *testing.T) {
	g := newTestGate(t)

	// A row of tall narrow marks, the shape a stamped serial leaves.
	data := scene(t, 200, 200,
		image.Rect(40, 80, 50, 110),
		image.Rect(60, 80, 70, 110),
		image.Rect(80, 80, 90, 110),
	)
	m, err := g.Evaluate(data)
	require.NoError(t, err)
	require.True(t, m.Plausible)
	require.GreaterOrEqual(t, len(m.Candidates), 3)
}

func TestEvaluate_OversizedBlobRejected(t *testing.T) {
	g := newTestGate(t)

	// One region covering a third of the frame: a shadow, not a digit.
	m, err := g.Evaluate(scene(t, 200, 200, image.Rect(40, 40, 160, 160)))
	require.NoError(t, err)
	require.False(t, m.Plausible)
	require.Empty(t, m.Candidates)
	require.GreaterOrEqual(t, m.Rejected, 1)
}

func TestEvaluate_WideScratchRejected(t *testing.T) {
	g := newTestGate(t)

	// Far wider than tall: outside the digit aspect window.
	m, err := g.Evaluate(scene(t, 200, 200, image.Rect(40, 100, 160, 104)))
	require.NoError(t, err)
	require.False(t, m.Plausible)
	require.Empty(t, m.Candidates)
}

func TestEvaluate_UndecodableBytes(t *testing.T) {
	g := newTestGate(t)

	_, err := g.Evaluate([]byte("definitely not an image"))
	require.Error(t, err)
	require.ErrorIs(t, err, common.ErrDecode)
}

func TestEvaluate_Deterministic(t *testing.T) {
	g := newTestGate(t)
	data := scene(t, 200, 200, image.Rect(40, 80, 50, 110), image.Rect(60, 80, 70, 110))

	first, err := g.Evaluate(data)
	require.NoError(t, err)
	second, err := g.Evaluate(data)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEvaluate_DownscalesLargeImages(t *testing.T) {
	g := newTestGate(t)

	m, err := g.Evaluate(scene(t, 2048, 1024))
	require.NoError(t, err)
	require.Equal(t, 1024, m.ImageWidth)
	require.Equal(t, 512, m.ImageHeight)
}

func TestFilterCandidates_ThresholdRespectsMinContours(t *testing.T) {
	g := NewGate(common.GateConfig{MinContours: 3}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	data := scene(t, 200, 200, image.Rect(40, 80, 50, 110))
	m, err := g.Evaluate(data)
	require.NoError(t, err)
	require.False(t, m.Plausible, "one candidate must not satisfy a three-contour policy")
	require.Len(t, m.Candidates, 1)
}

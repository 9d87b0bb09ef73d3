// Package shapegate is the local pre-filter that decides whether an image
// plausibly shows a stamped mould surface before the costly remote call.
// It is a pure function of the image bytes and the gate policy: no network,
// no randomness, identical pixels always produce identical metrics.
package shapegate

import (
	"log/slog"

	"github.com/abhi542/MouldLensAI/internal/common"
	"github.com/abhi542/MouldLensAI/internal/entity"
)

// Gate evaluates images against the digit-like contour policy.
type Gate struct {
	cfg    common.GateConfig
	logger *slog.Logger
}

// NewGate builds a gate, filling unset policy fields with the defaults
// tuned on the foundry capture set.
func NewGate(cfg common.GateConfig, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinAspectRatio <= 0 {
		cfg.MinAspectRatio = 0.15
	}
	if cfg.MaxAspectRatio <= 0 {
		cfg.MaxAspectRatio = 1.2
	}
	if cfg.MinAreaRatio <= 0 {
		cfg.MinAreaRatio = 0.0005
	}
	if cfg.MaxAreaRatio <= 0 {
		cfg.MaxAreaRatio = 0.05
	}
	if cfg.BlockSize < 3 || cfg.BlockSize%2 == 0 {
		cfg.BlockSize = 31
	}
	if cfg.MinContours <= 0 {
		cfg.MinContours = 1
	}
	if cfg.MaxSide <= 0 {
		cfg.MaxSide = 1024
	}
	return &Gate{cfg: cfg, logger: logger}
}

// filterCandidates applies the aspect-ratio and area windows to raw
// component boxes and assembles the metrics. Ambiguity never errors here:
// an image with nothing digit-like simply comes back Plausible=false.
func (g *Gate) filterCandidates(boxes []entity.CandidateBox, width, height int) *entity.ShapeMetrics {
	imageArea := float64(width * height)
	candidates := make([]entity.CandidateBox, 0, len(boxes))
	rejected := 0
	for _, b := range boxes {
		if b.Width == 0 || b.Height == 0 {
			rejected++
			continue
		}
		aspect := float64(b.Width) / float64(b.Height)
		areaRatio := float64(b.Width*b.Height) / imageArea
		if aspect < g.cfg.MinAspectRatio || aspect > g.cfg.MaxAspectRatio ||
			areaRatio < g.cfg.MinAreaRatio || areaRatio > g.cfg.MaxAreaRatio {
			rejected++
			continue
		}
		candidates = append(candidates, b)
	}

	m := &entity.ShapeMetrics{
		ImageWidth:  width,
		ImageHeight: height,
		Candidates:  candidates,
		Rejected:    rejected,
		Plausible:   len(candidates) >= g.cfg.MinContours,
	}
	g.logger.Debug("shapegate.evaluate",
		"width", width, "height", height,
		"candidates", len(candidates), "rejected", rejected,
		"plausible", m.Plausible,
	)
	return m
}

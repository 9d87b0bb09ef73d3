// Package telemetry is the dashboard-side consumer of outcome records. It
// watches the stream per camera and raises the consecutive-empty alarm that
// the original monitor surfaced as "DOWNTIME DETECTED".
package telemetry

import (
	"log/slog"
	"sync"

	"github.com/abhi542/MouldLensAI/constants"
	"github.com/abhi542/MouldLensAI/internal/entity"
)

// DefaultAlarmThreshold is how many consecutive empty outcomes from one
// camera indicate a possible belt or camera fault.
const DefaultAlarmThreshold = 3

// CameraState is the alarm snapshot for one camera.
type CameraState struct {
	CameraID         string `json:"camera_id"`
	ConsecutiveEmpty int    `json:"consecutive_empty"`
	Alarm            bool   `json:"alarm"`
}

// Gate counts consecutive empty outcomes per camera. A success resets the
// count; an error leaves it unchanged, since operational failures say
// nothing about whether the belt is empty.
type Gate struct {
	mu        sync.Mutex
	threshold int
	empties   map[string]int
	logger    *slog.Logger
}

func NewGate(threshold int, logger *slog.Logger) *Gate {
	if threshold <= 0 {
		threshold = DefaultAlarmThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		threshold: threshold,
		empties:   make(map[string]int),
		logger:    logger,
	}
}

// Observe feeds one outcome record into the per-camera counters.
func (g *Gate) Observe(rec *entity.OutcomeRecord) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch rec.Status {
	case constants.OutcomeEmpty:
		g.empties[rec.CameraID]++
		if g.empties[rec.CameraID] == g.threshold {
			g.logger.Warn("telemetry.consecutive_empty_alarm",
				"camera_id", rec.CameraID,
				"consecutive_empty", g.empties[rec.CameraID],
			)
		}
	case constants.OutcomeSuccess:
		g.empties[rec.CameraID] = 0
	case constants.OutcomeError:
		// no-op
	}
}

// Alarm reports whether the camera has hit the consecutive-empty threshold.
func (g *Gate) Alarm(cameraID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.empties[cameraID] >= g.threshold
}

// Snapshot returns the alarm state of every camera seen so far.
func (g *Gate) Snapshot() []CameraState {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]CameraState, 0, len(g.empties))
	for id, n := range g.empties {
		out = append(out, CameraState{
			CameraID:         id,
			ConsecutiveEmpty: n,
			Alarm:            n >= g.threshold,
		})
	}
	return out
}

package entity

import (
	"time"

	"github.com/abhi542/MouldLensAI/constants"
)

// OutcomeRecord is the persisted unit, created exactly once per upload at
// the end of the pipeline and written to both sinks. Records are never
// mutated; human corrections insert a new record with CorrectedFrom set.
type OutcomeRecord struct {
	ID               string             `json:"id" bson:"_id"`
	Status           constants.Outcome  `json:"status" bson:"status"`
	Message          string             `json:"message" bson:"message"`
	Cope             *string            `json:"cope" bson:"cope"`
	Drag             *DragValue         `json:"drag" bson:"drag"`
	Timestamp        time.Time          `json:"timestamp" bson:"timestamp"`
	ProcessingTimeMS float64            `json:"processing_time_ms" bson:"processing_time_ms"`
	CameraID         string             `json:"camera_id" bson:"camera_id"`
	CorrectedFrom    string             `json:"corrected_from,omitempty" bson:"corrected_from,omitempty"`

	// Convenience mirror of status != error for older dashboard builds.
	MouldDetected bool `json:"mould_detected" bson:"mould_detected"`
}

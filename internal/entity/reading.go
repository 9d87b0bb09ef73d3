package entity

// DragValue is the lower-half identifier, split into the main number and
// the optional bracketed sub-number ("88234 (644)" -> Main=88234, Sub=644).
type DragValue struct {
	Main string  `json:"main" bson:"main"`
	Sub  *string `json:"sub,omitempty" bson:"sub,omitempty"`
}

// CopeDragReading is the validated pair of stamp identifiers.
// Both fields nil means the model explicitly reported an empty mould.
type CopeDragReading struct {
	Cope *string    `json:"cope"`
	Drag *DragValue `json:"drag"`
}

// IsEmpty reports whether the model found no digits at all.
func (r CopeDragReading) IsEmpty() bool {
	return r.Cope == nil && r.Drag == nil
}

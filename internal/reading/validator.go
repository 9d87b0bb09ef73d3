// Package reading narrows raw classifier output into a CopeDragReading.
// Nothing untyped leaks past this boundary: the pipeline sees either a
// validated reading, a model-reported-empty reading, or a ValidationError
// with a reason code.
package reading

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/abhi542/MouldLensAI/constants"
	"github.com/abhi542/MouldLensAI/internal/common"
	"github.com/abhi542/MouldLensAI/internal/entity"
	"github.com/abhi542/MouldLensAI/internal/llm"
)

var (
	reNonDigit = regexp.MustCompile(`[^0-9]`)
	reBrackets = regexp.MustCompile(`\[([^\[\]]*)\]`)
	reParens   = regexp.MustCompile(`^\s*([0-9][0-9 ]*?)\s*\(([^()]*)\)\s*$`)
)

// emptyMarkers are the strings the model uses to signal "no digits found".
// These resolve to the empty outcome, never to a validation failure.
var emptyMarkers = map[string]struct{}{
	"": {}, "null": {}, "none": {}, "n/a": {}, "na": {}, "unreadable": {},
}

// Validator checks classifier payloads against the extraction schema and
// normalizes them into the canonical reading shape.
type Validator struct {
	schema *jsonschema.Schema
	logger *slog.Logger
}

// NewValidator compiles the extraction schema once for the process lifetime.
func NewValidator(logger *slog.Logger) (*Validator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	return &Validator{schema: schema, logger: logger}, nil
}

// Validate parses and narrows a raw extraction. The returned reading has
// both fields nil when the model explicitly reported an empty mould.
// Normalization is idempotent: validating the JSON form of a returned
// reading yields the same reading.
func (v *Validator) Validate(raw llm.RawExtraction) (entity.CopeDragReading, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return entity.CopeDragReading{}, &common.ValidationError{
			Reason: common.ReasonMalformedNesting,
			Detail: fmt.Sprintf("payload is not valid JSON: %v", err),
		}
	}

	m, ok := doc.(map[string]any)
	if !ok {
		return entity.CopeDragReading{}, &common.ValidationError{
			Reason: common.ReasonMalformedNesting,
			Detail: "payload is not a JSON object",
		}
	}

	// Required keys first, so absence reports missing_field rather than a
	// generic schema violation.
	if _, ok := m["cope"]; !ok {
		return entity.CopeDragReading{}, &common.ValidationError{
			Reason: common.ReasonMissingField, Field: "cope", Detail: "key absent from payload",
		}
	}
	if _, hasDrag := m["drag"]; !hasDrag {
		if _, hasMain := m["drag_main"]; !hasMain {
			return entity.CopeDragReading{}, &common.ValidationError{
				Reason: common.ReasonMissingField, Field: "drag", Detail: "neither drag nor drag_main present",
			}
		}
	}

	if err := v.schema.Validate(doc); err != nil {
		return entity.CopeDragReading{}, &common.ValidationError{
			Reason: common.ReasonMalformedNesting,
			Detail: fmt.Sprintf("schema violation: %v", err),
		}
	}

	cope, err := v.digitField("cope", m["cope"])
	if err != nil {
		return entity.CopeDragReading{}, err
	}

	drag, err := v.dragField(m)
	if err != nil {
		return entity.CopeDragReading{}, err
	}

	out := entity.CopeDragReading{Cope: cope, Drag: drag}
	if out.IsEmpty() {
		v.logger.Info("reading.validate.model_empty")
		return out, nil
	}
	// A one-sided reading contradicts the success invariant (both non-null)
	// and is not an empty belt either, so it is structurally incomplete.
	if out.Cope == nil || out.Drag == nil {
		missing := "cope"
		if out.Drag == nil {
			missing = "drag"
		}
		return entity.CopeDragReading{}, &common.ValidationError{
			Reason: common.ReasonMissingField, Field: missing,
			Detail: "reading is one-sided: cope and drag must both be present or both empty",
		}
	}
	return out, nil
}

// digitField coerces a loose JSON value into a canonical digit string, or
// nil for an explicit empty marker. Trimming to nothing is empty, not an
// error; a value that cannot hold digits at all is non_numeric.
func (v *Validator) digitField(field string, val any) (*string, error) {
	switch t := val.(type) {
	case nil:
		return nil, nil
	case float64:
		return v.trimDigits(field, fmt.Sprintf("%.0f", t))
	case string:
		if _, ok := emptyMarkers[strings.ToLower(strings.TrimSpace(t))]; ok {
			return nil, nil
		}
		return v.trimDigits(field, t)
	default:
		return nil, &common.ValidationError{
			Reason: common.ReasonNonNumeric, Field: field,
			Detail: fmt.Sprintf("unsupported type %T", val),
		}
	}
}

func (v *Validator) trimDigits(field, s string) (*string, error) {
	digits := reNonDigit.ReplaceAllString(s, "")
	if digits == "" {
		return nil, nil
	}
	if len(digits) < constants.MinDigits || len(digits) > constants.MaxDigits {
		return nil, &common.ValidationError{
			Reason: common.ReasonNonNumeric, Field: field,
			Detail: fmt.Sprintf("digit string %q has length %d, want %d-%d",
				digits, len(digits), constants.MinDigits, constants.MaxDigits),
		}
	}
	return &digits, nil
}

// dragField normalizes all tolerated drag spellings (flat digit string,
// "[88234][644]", "88234 (644)", {"main","sub"} object, or the split
// drag_main/drag_sub pair) into the canonical {Main, Sub} shape.
func (v *Validator) dragField(m map[string]any) (*entity.DragValue, error) {
	if raw, ok := m["drag"]; ok {
		switch t := raw.(type) {
		case nil:
			return nil, nil
		case map[string]any:
			mainVal, ok := t["main"]
			if !ok {
				return nil, &common.ValidationError{
					Reason: common.ReasonMissingField, Field: "drag.main", Detail: "key absent from drag object",
				}
			}
			return v.buildDrag(mainVal, t["sub"])
		case string:
			return v.parseDragString(t)
		case float64:
			return v.buildDrag(t, nil)
		default:
			return nil, &common.ValidationError{
				Reason: common.ReasonMalformedNesting, Field: "drag",
				Detail: fmt.Sprintf("unsupported type %T", raw),
			}
		}
	}
	return v.buildDrag(m["drag_main"], m["drag_sub"])
}

// parseDragString handles the bracket and parenthesis spellings.
func (v *Validator) parseDragString(s string) (*entity.DragValue, error) {
	if groups := reBrackets.FindAllStringSubmatch(s, -1); len(groups) > 0 {
		if len(groups) > 2 {
			return nil, &common.ValidationError{
				Reason: common.ReasonMalformedNesting, Field: "drag",
				Detail: fmt.Sprintf("%d bracketed groups, want at most 2", len(groups)),
			}
		}
		var mainVal, subVal any = groups[0][1], nil
		if len(groups) == 2 {
			subVal = groups[1][1]
		}
		return v.buildDrag(mainVal, subVal)
	}
	if parts := reParens.FindStringSubmatch(s); parts != nil {
		return v.buildDrag(parts[1], parts[2])
	}
	return v.buildDrag(s, nil)
}

func (v *Validator) buildDrag(mainVal, subVal any) (*entity.DragValue, error) {
	main, err := v.digitField("drag.main", mainVal)
	if err != nil {
		return nil, err
	}
	sub, err := v.digitField("drag.sub", subVal)
	if err != nil {
		return nil, err
	}
	if main == nil {
		if sub != nil {
			return nil, &common.ValidationError{
				Reason: common.ReasonMissingField, Field: "drag.main",
				Detail: "sub number present without a main number",
			}
		}
		return nil, nil
	}
	return &entity.DragValue{Main: *main, Sub: sub}, nil
}

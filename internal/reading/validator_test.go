package reading

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abhi542/MouldLensAI/internal/common"
	"github.com/abhi542/MouldLensAI/internal/entity"
	"github.com/abhi542/MouldLensAI/internal/llm"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return v
}

func requireReason(t *testing.T, err error, reason string) {
	t.Helper()
	require.Error(t, err)
	var verr *common.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, reason, verr.Reason)
}

func TestValidate_CompleteReading(t *testing.T) {
	v := newTestValidator(t)

	rdg, err := v.Validate(llm.RawExtraction(`{"cope":"81373","drag_main":"88234","drag_sub":"644"}`))
	require.NoError(t, err)
	require.NotNil(t, rdg.Cope)
	require.Equal(t, "81373", *rdg.Cope)
	require.NotNil(t, rdg.Drag)
	require.Equal(t, "88234", rdg.Drag.Main)
	require.NotNil(t, rdg.Drag.Sub)
	require.Equal(t, "644", *rdg.Drag.Sub)
}

func TestValidate_DragSpellingsAreEquivalent(t *testing.T) {
	v := newTestValidator(t)

	payloads := []string{
		`{"cope":"81373","drag":{"main":"88234","sub":"644"}}`,
		`{"cope":"81373","drag":"[88234][644]"}`,
		`{"cope":"81373","drag":"88234 (644)"}`,
		`{"cope":"81373","drag_main":"88234","drag_sub":"644"}`,
	}
	for _, p := range payloads {
		rdg, err := v.Validate(llm.RawExtraction(p))
		require.NoError(t, err, "payload %s", p)
		require.NotNil(t, rdg.Drag, "payload %s", p)
		require.Equal(t, "88234", rdg.Drag.Main, "payload %s", p)
		require.NotNil(t, rdg.Drag.Sub, "payload %s", p)
		require.Equal(t, "644", *rdg.Drag.Sub, "payload %s", p)
	}
}

func TestValidate_NumericValuesCoerced(t *testing.T) {
	v := newTestValidator(t)

	rdg, err := v.Validate(llm.RawExtraction(`{"cope":81373,"drag_main":88234,"drag_sub":644}`))
	require.NoError(t, err)
	require.Equal(t, "81373", *rdg.Cope)
	require.Equal(t, "88234", rdg.Drag.Main)
	require.Equal(t, "644", *rdg.Drag.Sub)
}

func TestValidate_Idempotent(t *testing.T) {
	v := newTestValidator(t)

	first, err := v.Validate(llm.RawExtraction(`{"cope":" 81-373 ","drag":"[88 234][644]"}`))
	require.NoError(t, err)

	again, err := json.Marshal(first)
	require.NoError(t, err)
	second, err := v.Validate(llm.RawExtraction(again))
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestValidate_ModelReportedEmpty(t *testing.T) {
	v := newTestValidator(t)

	for _, p := range []string{
		`{"cope":null,"drag_main":null,"drag_sub":null}`,
		`{"cope":"null","drag":"N/A"}`,
		`{"cope":"unreadable","drag_main":""}`,
	} {
		rdg, err := v.Validate(llm.RawExtraction(p))
		require.NoError(t, err, "payload %s", p)
		require.True(t, rdg.IsEmpty(), "payload %s", p)
	}
}

func TestValidate_TrimToNothingIsEmpty(t *testing.T) {
	v := newTestValidator(t)

	rdg, err := v.Validate(llm.RawExtraction(`{"cope":"---","drag":"..."}`))
	require.NoError(t, err)
	require.True(t, rdg.IsEmpty())
}

func TestValidate_MissingCopeKey(t *testing.T) {
	v := newTestValidator(t)

	_, err := v.Validate(llm.RawExtraction(`{"drag_main":"88234"}`))
	requireReason(t, err, common.ReasonMissingField)
}

func TestValidate_MissingDragKeys(t *testing.T) {
	v := newTestValidator(t)

	_, err := v.Validate(llm.RawExtraction(`{"cope":"81373"}`))
	requireReason(t, err, common.ReasonMissingField)
}

func TestValidate_OneSidedReading(t *testing.T) {
	v := newTestValidator(t)

	_, err := v.Validate(llm.RawExtraction(`{"cope":"81373","drag":null}`))
	requireReason(t, err, common.ReasonMissingField)

	_, err = v.Validate(llm.RawExtraction(`{"cope":null,"drag_main":"88234"}`))
	requireReason(t, err, common.ReasonMissingField)
}

func TestValidate_SubWithoutMain(t *testing.T) {
	v := newTestValidator(t)

	_, err := v.Validate(llm.RawExtraction(`{"cope":"81373","drag_main":null,"drag_sub":"644"}`))
	requireReason(t, err, common.ReasonMissingField)
}

func TestValidate_TooManyDigits(t *testing.T) {
	v := newTestValidator(t)

	_, err := v.Validate(llm.RawExtraction(`{"cope":"123456789","drag_main":"88234"}`))
	requireReason(t, err, common.ReasonNonNumeric)
}

func TestValidate_NotJSON(t *testing.T) {
	v := newTestValidator(t)

	_, err := v.Validate(llm.RawExtraction(`the stamp reads 81373`))
	requireReason(t, err, common.ReasonMalformedNesting)
}

func TestValidate_NotAnObject(t *testing.T) {
	v := newTestValidator(t)

	_, err := v.Validate(llm.RawExtraction(`["81373","88234"]`))
	requireReason(t, err, common.ReasonMalformedNesting)
}

func TestValidate_SchemaViolation(t *testing.T) {
	v := newTestValidator(t)

	_, err := v.Validate(llm.RawExtraction(`{"cope":true,"drag_main":"88234"}`))
	requireReason(t, err, common.ReasonMalformedNesting)
}

func TestValidate_TooManyBracketGroups(t *testing.T) {
	v := newTestValidator(t)

	_, err := v.Validate(llm.RawExtraction(`{"cope":"81373","drag":"[1][2][3]"}`))
	requireReason(t, err, common.ReasonMalformedNesting)
}

func TestValidate_DragWithoutSub(t *testing.T) {
	v := newTestValidator(t)

	rdg, err := v.Validate(llm.RawExtraction(`{"cope":"81373","drag":"88234"}`))
	require.NoError(t, err)
	require.Equal(t, entity.DragValue{Main: "88234"}, *rdg.Drag)
}

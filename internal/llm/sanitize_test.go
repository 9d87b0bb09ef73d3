package llm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripFences_JSONFence(t *testing.T) {
	in := "```json\n{\"cope\": \"81373\"}\n```"
	require.Equal(t, `{"cope": "81373"}`, StripFences(in))
}

func TestStripFences_BareFence(t *testing.T) {
	in := "```\n{\"cope\": null}\n```"
	require.Equal(t, `{"cope": null}`, StripFences(in))
}

func TestStripFences_SurroundingProse(t *testing.T) {
	in := "Here is the extraction:\n{\"cope\": \"81373\", \"drag_main\": \"88234\"}\nLet me know if you need anything else."
	require.Equal(t, `{"cope": "81373", "drag_main": "88234"}`, StripFences(in))
}

func TestStripFences_AlreadyClean(t *testing.T) {
	in := `{"cope":"81373","drag_main":"88234","drag_sub":"644"}`
	require.Equal(t, in, StripFences(in))
}

func TestStripFences_NoObject(t *testing.T) {
	require.Equal(t, "no digits here", StripFences("  no digits here  "))
}

package view_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/relocation/internal/view"
)

func TestView_WireFormat(t *testing.T) {
	v := view.View{
		Title: "Portugal",
		Blocks: []view.Block{
			view.KPIBlock{Label: "Visa Options", Value: "3 available", Icon: "🛂"},
			view.TextBlock{Content: "hello"},
		},
	}

	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"title": "Portugal",
		"blocks": [
			{"type": "kpi", "props": {"label": "Visa Options", "value": "3 available", "icon": "🛂"}},
			{"type": "text", "props": {"content": "hello"}}
		]
	}`, string(b))
}

func TestView_EmptyBlocksIsArray(t *testing.T) {
	b, err := json.Marshal(view.View{Title: "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"x","blocks":[]}`, string(b))
}

func TestView_DecodesKnownAndUnknownBlocks(t *testing.T) {
	raw := `{
		"title": "Mixed",
		"subtitle": "sub",
		"blocks": [
			{"type": "comparison", "props": {"countries": ["A","B"], "flags": ["",""], "items": [{"label":"Region","values":["x","y"]}], "highlight": "Region"}},
			{"type": "map", "props": {"lat": 38.7, "lng": -9.1}},
			{"type": "pros_cons", "props": {"pros": ["sun"], "cons": ["tax"]}}
		]
	}`

	var v view.View
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	require.Len(t, v.Blocks, 3)

	cmp, ok := v.Blocks[0].(view.ComparisonBlock)
	require.True(t, ok)
	assert.Equal(t, "Region", cmp.Highlight)

	other, ok := v.Blocks[1].(view.OtherBlock)
	require.True(t, ok)
	assert.Equal(t, "map", other.Type())

	// Unknown tags survive a round trip untouched.
	b, err := json.Marshal(v)
	require.NoError(t, err)
	var again map[string]any
	require.NoError(t, json.Unmarshal(b, &again))
	blocks := again["blocks"].([]any)
	mapBlock := blocks[1].(map[string]any)
	assert.Equal(t, "map", mapBlock["type"])
	assert.Equal(t, map[string]any{"lat": 38.7, "lng": -9.1}, mapBlock["props"])
}

func TestView_BadPropsIsAnError(t *testing.T) {
	var v view.View
	err := json.Unmarshal([]byte(`{"title":"x","blocks":[{"type":"kpi","props":{"label":5}}]}`), &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kpi block")
}

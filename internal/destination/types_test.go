package destination_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/relocation/internal/destination"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Portugal":             "portugal",
		"  Spain ":             "spain",
		"United Arab Emirates": "united-arab-emirates",
		"New\tZealand":         "new-zealand",
		"costa  rica":          "costa-rica",
	}
	for in, want := range cases {
		assert.Equal(t, want, destination.Slugify(in), in)
	}
}

func TestHighlight_AcceptsStringAndObject(t *testing.T) {
	var hs []destination.Highlight
	raw := `["Sunny all year", {"icon": "🏖️", "text": "Beaches"}]`
	require.NoError(t, json.Unmarshal([]byte(raw), &hs))
	require.Len(t, hs, 2)
	assert.Equal(t, "Sunny all year", hs[0].Text)
	assert.Empty(t, hs[0].Icon)
	assert.Equal(t, "Beaches", hs[1].Text)
	assert.Equal(t, "🏖️", hs[1].Icon)
}

func TestCostOfLiving_ObjectFormDecodesToNoCities(t *testing.T) {
	var d destination.Destination
	raw := `{"slug":"malta","cost_of_living":{"currency":"EUR","items":[]}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &d))
	assert.Empty(t, d.CostOfLiving)

	_, ok := d.PrimaryCity()
	assert.False(t, ok)
}

func TestCostOfLiving_ArrayForm(t *testing.T) {
	var d destination.Destination
	raw := `{"cost_of_living":[{"cityName":"Lisbon","rent1BRCenter":1400,"currency":"EUR"}]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &d))

	city, ok := d.PrimaryCity()
	require.True(t, ok)
	assert.Equal(t, "Lisbon", city.CityName)
	assert.Equal(t, 1400.0, city.Rent1BRCenter)
}

func TestNormalize_EmptyContainersNotNull(t *testing.T) {
	d := destination.Destination{Slug: "empty"}
	d.Normalize()

	b, err := json.Marshal(d)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	for _, field := range []string{"quick_facts", "highlights", "visas", "cost_of_living", "faqs"} {
		assert.Equal(t, []any{}, m[field], field)
	}
}

func TestHighlightTexts_Truncates(t *testing.T) {
	d := destination.Destination{Highlights: []destination.Highlight{
		{Text: "a"}, {Text: "b"}, {Text: "c"},
	}}
	assert.Equal(t, []string{"a", "b"}, d.HighlightTexts(2))
	assert.Equal(t, []string{"a", "b", "c"}, d.HighlightTexts(5))
}

package seed_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/relocation/internal/destination"
	"github.com/neexbeast/relocation/internal/seed"
	"github.com/neexbeast/relocation/internal/storage"
)

func TestFixtures_Cyprus(t *testing.T) {
	dests, err := seed.Fixtures()
	require.NoError(t, err)
	require.NotEmpty(t, dests)

	var cyprus *destination.Destination
	for i := range dests {
		if dests[i].Slug == "cyprus" {
			cyprus = &dests[i]
		}
	}
	require.NotNil(t, cyprus)

	assert.Equal(t, "Cyprus", cyprus.CountryName)
	assert.True(t, cyprus.Enabled)
	assert.Equal(t, 8, cyprus.Priority)
	assert.Len(t, cyprus.CostOfLiving, 4)
	assert.Len(t, cyprus.Visas, 4)
	assert.Len(t, cyprus.Highlights, 8)
	assert.Len(t, cyprus.FAQs, 5)

	limassol, ok := cyprus.PrimaryCity()
	require.True(t, ok)
	assert.Equal(t, "Limassol", limassol.CityName)
	assert.Equal(t, 1200.0, limassol.Rent1BRCenter)
	assert.Equal(t, "EUR", limassol.Currency)

	assert.Equal(t, "4-6 weeks", cyprus.Visas[0].ProcessingTime)
	assert.Equal(t, 42000.0, cyprus.JobMarket.AvgSalaryTech)
	assert.Equal(t, "€35,000 - €55,000", cyprus.JobMarket.AvgSalaries["Software Developer"])
	assert.JSONEq(t, `{"overall_score":85,"cost_of_living_index":52,"purchasing_power_index":68,"safety_index":82,
		"climate_index":95,"expat_friendly_index":88,"healthcare_index":75,"pollution_index":22}`, string(cyprus.QualityOfLife))
}

func TestFixtures_UniqueSlugsAndStringHighlights(t *testing.T) {
	dests, err := seed.Fixtures()
	require.NoError(t, err)

	slugs := map[string]bool{}
	for _, d := range dests {
		assert.False(t, slugs[d.Slug], "duplicate slug %s", d.Slug)
		slugs[d.Slug] = true
		for _, h := range d.Highlights {
			assert.NotEmpty(t, h.Text, d.Slug)
		}
	}
	assert.True(t, slugs["portugal"])
}

func TestLoad_Defaults(t *testing.T) {
	fsys := fstest.MapFS{
		"nz.yaml": {Data: []byte("country_name: New Zealand\nregion: Oceania\n")},
	}

	dests, err := seed.Load(fsys)
	require.NoError(t, err)
	require.Len(t, dests, 1)
	assert.Equal(t, "new-zealand", dests[0].Slug)
	assert.True(t, dests[0].Enabled)
	assert.NotNil(t, dests[0].Visas)
	assert.NotNil(t, dests[0].CostOfLiving)
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"missing name": {"a.yaml": {Data: []byte("slug: a\n")}},
		"bad yaml":     {"a.yaml": {Data: []byte("country_name: [unclosed\n")}},
		"empty":        {"a.yaml": {Data: []byte("")}},
		"wrong type":   {"a.yaml": {Data: []byte("country_name: X\nvisas: 3\n")}},
		"duplicate": {
			"a.yaml": {Data: []byte("country_name: Malta\n")},
			"b.yaml": {Data: []byte("country_name: Malta\n")},
		},
	}
	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := seed.Load(fsys)
			require.Error(t, err)
		})
	}
}

// ---- fake store ----

type fakeStore struct {
	upserted  []destination.Destination
	upsertErr error
	stats     map[string]*storage.SeedStats
}

func (f *fakeStore) UpsertDestinations(_ context.Context, dests []destination.Destination) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, dests...)
	return nil
}

func (f *fakeStore) GetSeedStats(_ context.Context, slug string) (*storage.SeedStats, error) {
	return f.stats[slug], nil
}

func TestSeed_UpsertsAndVerifies(t *testing.T) {
	dests, err := seed.Fixtures()
	require.NoError(t, err)

	store := &fakeStore{stats: map[string]*storage.SeedStats{}}
	for _, d := range dests {
		store.stats[d.Slug] = &storage.SeedStats{CountryName: d.CountryName, CityCount: len(d.CostOfLiving), VisaCount: len(d.Visas)}
	}

	reports, err := seed.Seed(context.Background(), store, dests)
	require.NoError(t, err)
	assert.Len(t, store.upserted, len(dests))
	require.Len(t, reports, len(dests))
	for _, r := range reports {
		if r.Slug == "cyprus" {
			assert.Equal(t, 4, r.Stats.CityCount)
			assert.Equal(t, 4, r.Stats.VisaCount)
		}
	}
}

func TestSeed_UpsertError(t *testing.T) {
	store := &fakeStore{upsertErr: errors.New("tx failed")}
	_, err := seed.Seed(context.Background(), store, []destination.Destination{{Slug: "x", CountryName: "X"}})
	require.Error(t, err)
}

func TestSeed_MissingAfterUpsert(t *testing.T) {
	store := &fakeStore{stats: map[string]*storage.SeedStats{}}
	_, err := seed.Seed(context.Background(), store, []destination.Destination{{Slug: "x", CountryName: "X"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing after upsert")
}

package seed

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/neexbeast/relocation/internal/destination"
	"github.com/neexbeast/relocation/internal/storage"
)

//go:embed fixtures/*.yaml
var fixtures embed.FS

// Store is the write access seeding needs.
type Store interface {
	UpsertDestinations(ctx context.Context, dests []destination.Destination) error
	GetSeedStats(ctx context.Context, slug string) (*storage.SeedStats, error)
}

// Report is the post-seed verification for one destination.
type Report struct {
	Slug  string
	Stats *storage.SeedStats
}

// Fixtures returns the destinations bundled with the binary.
func Fixtures() ([]destination.Destination, error) {
	sub, err := fs.Sub(fixtures, "fixtures")
	if err != nil {
		return nil, fmt.Errorf("opening bundled fixtures: %w", err)
	}
	return Load(sub)
}

// Load decodes every *.yaml file at the root of fsys, one destination per
// file, in file name order. A missing slug is derived from country_name and
// a missing enabled flag defaults to true.
func Load(fsys fs.FS) ([]destination.Destination, error) {
	names, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, fmt.Errorf("listing fixtures: %w", err)
	}
	sort.Strings(names)

	seen := make(map[string]string, len(names))
	dests := make([]destination.Destination, 0, len(names))
	for _, name := range names {
		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("reading fixture %s: %w", name, err)
		}

		d, err := decode(b)
		if err != nil {
			return nil, fmt.Errorf("decoding fixture %s: %w", name, err)
		}
		if prev, ok := seen[d.Slug]; ok {
			return nil, fmt.Errorf("fixture %s: slug %q already defined in %s", name, d.Slug, prev)
		}
		seen[d.Slug] = path.Base(name)
		dests = append(dests, d)
	}

	return dests, nil
}

// decode reads YAML into a generic document and re-encodes it as JSON so the
// destination's JSON tags and custom decoders apply unchanged.
func decode(b []byte) (destination.Destination, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return destination.Destination{}, err
	}
	if doc == nil {
		return destination.Destination{}, fmt.Errorf("empty document")
	}
	if _, ok := doc["enabled"]; !ok {
		doc["enabled"] = true
	}

	js, err := json.Marshal(doc)
	if err != nil {
		return destination.Destination{}, fmt.Errorf("converting to JSON: %w", err)
	}

	var d destination.Destination
	if err := json.Unmarshal(js, &d); err != nil {
		return destination.Destination{}, err
	}

	if d.CountryName == "" {
		return destination.Destination{}, fmt.Errorf("country_name is required")
	}
	if d.Slug == "" {
		d.Slug = destination.Slugify(d.CountryName)
	}
	d.Normalize()

	return d, nil
}

// Seed upserts dests in one transaction and reads back their counts.
func Seed(ctx context.Context, store Store, dests []destination.Destination) ([]Report, error) {
	if err := store.UpsertDestinations(ctx, dests); err != nil {
		return nil, err
	}

	reports := make([]Report, 0, len(dests))
	for _, d := range dests {
		stats, err := store.GetSeedStats(ctx, d.Slug)
		if err != nil {
			return nil, fmt.Errorf("verifying %s: %w", d.Slug, err)
		}
		if stats == nil {
			return nil, fmt.Errorf("verifying %s: destination missing after upsert", d.Slug)
		}
		reports = append(reports, Report{Slug: d.Slug, Stats: stats})
	}

	return reports, nil
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/relocation/internal/destination"
)

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides database access for destination records.
type Repository struct {
	q  Querier
	tx TxBeginner
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool, tx: pool}
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
// Write methods are available only when q can also begin transactions.
func NewRepositoryWithQuerier(q Querier) *Repository {
	r := &Repository{q: q}
	if b, ok := q.(TxBeginner); ok {
		r.tx = b
	}
	return r
}

// enrichmentColumns lists the optional JSONB columns in schema order.
var enrichmentColumns = []string{
	"education_stats",
	"company_incorporation",
	"property_info",
	"expatriate_scheme",
	"residency_requirements",
	"climate_data",
	"crime_safety",
	"healthcare",
	"lifestyle",
	"infrastructure",
	"dining_nightlife",
	"capital_overview",
	"quality_of_life",
	"currency_info",
	"digital_nomad_info",
	"comparison_highlights",
	"images",
	"property_market",
	"education_data",
}

// selectColumns is the projection scanned by scanDestination. The optional
// columns are folded into a single object so the row shape stays fixed.
var selectColumns = func() string {
	pairs := make([]string, 0, len(enrichmentColumns))
	for _, c := range enrichmentColumns {
		pairs = append(pairs, fmt.Sprintf("'%s', %s", c, c))
	}
	return `slug, country_name, flag, region, language,
		hero_title, hero_subtitle, hero_image_url,
		quick_facts, highlights, visas, cost_of_living, job_market, faqs,
		jsonb_build_object(` + strings.Join(pairs, ", ") + `),
		enabled, priority, created_at, updated_at`
}()

// decodeError marks a row that scanned but held malformed JSON.
type decodeError struct {
	field string
	slug  string
	err   error
}

func (e *decodeError) Error() string {
	return fmt.Sprintf("unmarshaling %s for %s: %v", e.field, e.slug, e.err)
}

func (e *decodeError) Unwrap() error { return e.err }

// scanDestination reads one row produced by selectColumns.
func scanDestination(row pgx.Row) (*destination.Destination, error) {
	var d destination.Destination
	var quickFacts, highlights, visas, costOfLiving, jobMarket, faqs, enrichment []byte

	if err := row.Scan(
		&d.Slug,
		&d.CountryName,
		&d.Flag,
		&d.Region,
		&d.Language,
		&d.HeroTitle,
		&d.HeroSubtitle,
		&d.HeroImageURL,
		&quickFacts,
		&highlights,
		&visas,
		&costOfLiving,
		&jobMarket,
		&faqs,
		&enrichment,
		&d.Enabled,
		&d.Priority,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}

	fields := []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"quick_facts", quickFacts, &d.QuickFacts},
		{"highlights", highlights, &d.Highlights},
		{"visas", visas, &d.Visas},
		{"cost_of_living", costOfLiving, &d.CostOfLiving},
		{"job_market", jobMarket, &d.JobMarket},
		{"faqs", faqs, &d.FAQs},
		{"enrichment", enrichment, &d.Enrichment},
	}
	for _, f := range fields {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, &decodeError{field: f.name, slug: d.Slug, err: err}
		}
	}

	d.Normalize()
	return &d, nil
}

// GetBySlug retrieves an enabled destination by slug.
// Returns nil, nil when the slug is unknown or disabled.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*destination.Destination, error) {
	q := `SELECT ` + selectColumns + `
		FROM destinations
		WHERE slug = $1 AND enabled`

	d, err := scanDestination(r.q.QueryRow(ctx, q, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		var de *decodeError
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, fmt.Errorf("querying destination %s: %w", slug, err)
	}

	return d, nil
}

// ListEnabled returns every enabled destination, highest priority first.
func (r *Repository) ListEnabled(ctx context.Context) ([]*destination.Destination, error) {
	q := `SELECT ` + selectColumns + `
		FROM destinations
		WHERE enabled
		ORDER BY priority DESC, country_name ASC`

	return r.queryList(ctx, "listing destinations", q)
}

// likeEscaper escapes LIKE metacharacters in user input.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search ranks enabled destinations against a free-text query: exact slug or
// name first, then name prefix, name substring, and region/language substring.
// An empty query yields no results.
func (r *Repository) Search(ctx context.Context, query string, limit int) ([]*destination.Destination, error) {
	term := strings.ToLower(strings.TrimSpace(query))
	if term == "" {
		return []*destination.Destination{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	q := `WITH ranked AS (
			SELECT d.*,
				CASE
					WHEN d.slug = $1 OR lower(d.country_name) = $2 THEN 3
					WHEN lower(d.country_name) LIKE $3 || '%' THEN 2
					WHEN lower(d.country_name) LIKE '%' || $3 || '%' THEN 1
					WHEN lower(d.region) LIKE '%' || $3 || '%'
						OR lower(d.language) LIKE '%' || $3 || '%' THEN 0.5
					ELSE 0
				END AS rank
			FROM destinations d
			WHERE d.enabled
		)
		SELECT ` + selectColumns + `
		FROM ranked
		WHERE rank > 0
		ORDER BY rank DESC, priority DESC, country_name ASC
		LIMIT $4`

	return r.queryList(ctx, "searching destinations", q,
		destination.Slugify(term), term, likeEscaper.Replace(term), limit)
}

func (r *Repository) queryList(ctx context.Context, op, q string, args ...any) ([]*destination.Destination, error) {
	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	results := []*destination.Destination{}
	for rows.Next() {
		d, err := scanDestination(rows)
		if err != nil {
			var de *decodeError
			if errors.As(err, &de) {
				return nil, err
			}
			return nil, fmt.Errorf("scanning destination row: %w", err)
		}
		results = append(results, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating destination rows: %w", err)
	}

	return results, nil
}

// upsertSQL inserts a destination or overwrites every mutable column of an
// existing one. The slug is the conflict key and is never rewritten.
var upsertSQL = func() string {
	cols := []string{
		"slug", "country_name", "flag", "region", "language",
		"hero_title", "hero_subtitle", "hero_image_url",
		"quick_facts", "highlights", "visas", "cost_of_living", "job_market", "faqs",
	}
	vals := []string{
		"$1", "$2", "$3", "$4", "$5", "$6", "$7", "$8",
		"$9::jsonb", "$10::jsonb", "$11::jsonb", "$12::jsonb", "$13::jsonb", "$14::jsonb",
	}
	for _, c := range enrichmentColumns {
		cols = append(cols, c)
		vals = append(vals, fmt.Sprintf("COALESCE(src.e->'%s', '{}'::jsonb)", c))
	}
	cols = append(cols, "enabled", "priority", "updated_at")
	vals = append(vals, "$16", "$17", "NOW()")

	updates := make([]string, 0, len(cols)-1)
	for _, c := range cols[1:] {
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
	}

	return `INSERT INTO destinations (` + strings.Join(cols, ", ") + `)
		SELECT ` + strings.Join(vals, ", ") + `
		FROM (SELECT $15::jsonb AS e) AS src
		ON CONFLICT (slug) DO UPDATE
		SET ` + strings.Join(updates, ",\n\t\t    ")
}()

func upsertArgs(d destination.Destination) ([]any, error) {
	d.Normalize()

	docs := []any{d.QuickFacts, d.Highlights, d.Visas, d.CostOfLiving, d.JobMarket, d.FAQs, d.Enrichment}
	encoded := make([]string, 0, len(docs))
	for _, doc := range docs {
		b, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("marshaling destination %s: %w", d.Slug, err)
		}
		encoded = append(encoded, string(b))
	}

	args := []any{
		d.Slug, d.CountryName, d.Flag, d.Region, d.Language,
		d.HeroTitle, d.HeroSubtitle, d.HeroImageURL,
	}
	for _, e := range encoded {
		args = append(args, e)
	}
	return append(args, d.Enabled, d.Priority), nil
}

// UpsertDestinations writes all destinations in a single transaction.
// Used by the maintenance CLI only; the HTTP surface never writes.
func (r *Repository) UpsertDestinations(ctx context.Context, dests []destination.Destination) error {
	if r.tx == nil {
		return errors.New("upserting destinations: repository has no transaction support")
	}

	for _, d := range dests {
		if d.Slug == "" || d.CountryName == "" {
			return fmt.Errorf("upserting destinations: slug and country_name are required (slug %q)", d.Slug)
		}
	}

	err := runInTx(ctx, r.tx, func(tx pgx.Tx) error {
		for _, d := range dests {
			args, err := upsertArgs(d)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, upsertSQL, args...); err != nil {
				return fmt.Errorf("upserting destination %s: %w", d.Slug, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upserting destinations: %w", err)
	}

	return nil
}

// SeedStats summarises a stored destination for post-seed verification.
type SeedStats struct {
	CountryName string
	CityCount   int
	VisaCount   int
}

// GetSeedStats returns city and visa counts for slug, or nil when absent.
// Disabled rows are included.
func (r *Repository) GetSeedStats(ctx context.Context, slug string) (*SeedStats, error) {
	const q = `
		SELECT country_name,
			CASE WHEN jsonb_typeof(cost_of_living) = 'array' THEN jsonb_array_length(cost_of_living) ELSE 0 END,
			CASE WHEN jsonb_typeof(visas) = 'array' THEN jsonb_array_length(visas) ELSE 0 END
		FROM destinations
		WHERE slug = $1
	`

	var s SeedStats
	if err := r.q.QueryRow(ctx, q, slug).Scan(&s.CountryName, &s.CityCount, &s.VisaCount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying seed stats for %s: %w", slug, err)
	}

	return &s, nil
}

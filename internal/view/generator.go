package view

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/relocation/internal/destination"
)

// View type tags accepted by Generate. Anything else renders as an analysis.
const (
	KindComparison    = "comparison"
	KindCostBreakdown = "cost_breakdown"
	KindProsCons      = "pros_cons"
	KindAnalysis      = "analysis"
)

// Focus tags.
const (
	FocusCost      = "cost"
	FocusVisa      = "visa"
	FocusLifestyle = "lifestyle"
	FocusAll       = "all"
)

const (
	rowRegion    = "Region"
	rowLanguage  = "Language"
	rowRent      = "Rent (1BR Center)"
	rowTopVisa   = "Top Visa"
	rowVisaCount = "Visa Count"

	notAvailable = "N/A"

	// maxLookups bounds concurrent store lookups per request.
	maxLookups = 4
)

var (
	dashboardCons  = []string{"Bureaucracy can be slow", "Language learning may be needed", "Cultural adjustment period"}
	comparisonCons = []string{"Research visa requirements", "Consider language barrier", "Visit before committing"}
	prosConsCons   = []string{"Bureaucracy can be slow", "Language learning may be needed", "Healthcare system differs from home", "Cultural adjustment period"}
)

// Lookup is the store access the generator needs.
type Lookup interface {
	GetBySlug(ctx context.Context, slug string) (*destination.Destination, error)
}

// Request carries the generate_custom_view parameters.
type Request struct {
	ViewType  string
	Countries string
	Focus     string
	Title     string
	Subtitle  string
}

// Result is a generated view plus the country names that did not resolve.
type Result struct {
	View       View
	Unresolved []string
}

// Generator assembles views from stored destinations.
type Generator struct {
	store Lookup
	log   *slog.Logger
}

// NewGenerator constructs a Generator.
func NewGenerator(store Lookup, log *slog.Logger) *Generator {
	return &Generator{store: store, log: log}
}

// SplitCountries splits a comma-separated list, trimming names and dropping blanks.
func SplitCountries(list string) []string {
	var names []string
	for _, n := range strings.Split(list, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// Generate builds the view described by req. Branches that lack enough
// resolved destinations fall through to the analysis view.
func (g *Generator) Generate(ctx context.Context, req Request) Result {
	dests, unresolved := g.resolve(ctx, SplitCountries(req.Countries))

	var v View
	switch {
	case req.ViewType == KindComparison && len(dests) >= 2:
		v = comparisonView(req, dests[0], dests[1])
	case req.ViewType == KindCostBreakdown && len(dests) >= 1:
		v = costBreakdownView(req, dests[0])
	case req.ViewType == KindProsCons && len(dests) >= 1:
		v = prosConsView(req, dests[0])
	default:
		v = analysisView(req)
	}

	return Result{View: v, Unresolved: unresolved}
}

// resolve looks up each name by slug concurrently. Order is preserved;
// names that miss or fail are returned separately.
func (g *Generator) resolve(ctx context.Context, names []string) ([]*destination.Destination, []string) {
	found := make([]*destination.Destination, len(names))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxLookups)
	for i, name := range names {
		eg.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					g.log.Error("destination lookup panicked", "country", name, "recover", r)
					err = fmt.Errorf("destination lookup panicked: %v", r)
				}
			}()
			d, lookupErr := g.store.GetBySlug(egCtx, destination.Slugify(name))
			if lookupErr != nil {
				g.log.Warn("destination lookup failed", "country", name, "err", lookupErr)
				return nil
			}
			found[i] = d
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		g.log.Error("resolving destinations", "err", err)
	}

	dests := make([]*destination.Destination, 0, len(names))
	var unresolved []string
	for i, d := range found {
		if d == nil {
			unresolved = append(unresolved, names[i])
			continue
		}
		dests = append(dests, d)
	}
	return dests, unresolved
}

// Dashboard is the single-destination overview shown by show_destination.
func Dashboard(d *destination.Destination) View {
	var blocks []Block

	city, hasCity := d.PrimaryCity()
	if hasCity {
		blocks = append(blocks, KPIBlock{
			Label: "Rent (1BR Center) in " + city.CityName,
			Value: money(city.Currency, city.Rent1BRCenter),
			Icon:  "🏠",
		})
	}
	blocks = append(blocks, KPIBlock{
		Label: "Visa Options",
		Value: fmt.Sprintf("%d available", len(d.Visas)),
		Icon:  "🛂",
	})
	if d.Language != "" {
		blocks = append(blocks, KPIBlock{Label: "Official Language", Value: d.Language, Icon: "🗣️"})
	}

	if hasCity {
		blocks = append(blocks, costChart(city))
	}

	blocks = append(blocks, ProsConsBlock{
		Title: "Highlights",
		Pros:  d.HighlightTexts(5),
		Cons:  dashboardCons,
	})

	return View{Title: d.CountryName, Subtitle: d.HeroTitle, Blocks: blocks}
}

// costChart lists the five expense categories in fixed order, skipping zeros.
func costChart(c destination.CostCity) CostChartBlock {
	all := []CostItem{
		{Label: "Rent (1BR Center)", Amount: c.Rent1BRCenter},
		{Label: "Groceries", Amount: c.Groceries},
		{Label: "Dining Out", Amount: c.Dining},
		{Label: "Transportation", Amount: c.Transportation},
		{Label: "Utilities", Amount: c.Utilities},
	}

	items := make([]CostItem, 0, len(all))
	for _, it := range all {
		if it.Amount > 0 {
			it.Currency = c.Currency
			items = append(items, it)
		}
	}

	return CostChartBlock{
		Title:    "Monthly Expenses in " + c.CityName,
		Currency: c.Currency,
		Items:    items,
	}
}

func orDefault(s, def string) string {
	if s != "" {
		return s
	}
	return def
}

func rent(d *destination.Destination) string {
	c, ok := d.PrimaryCity()
	if !ok {
		return notAvailable
	}
	return money(c.Currency, c.Rent1BRCenter)
}

func topVisa(d *destination.Destination) string {
	if len(d.Visas) == 0 || d.Visas[0].Name == "" {
		return notAvailable
	}
	return d.Visas[0].Name
}

func comparisonView(req Request, d1, d2 *destination.Destination) View {
	cmp := ComparisonBlock{
		Countries: []string{d1.CountryName, d2.CountryName},
		Flags:     []string{d1.Flag, d2.Flag},
		Items: []ComparisonRow{
			{Label: rowRegion, Values: []string{d1.Region, d2.Region}},
			{Label: rowLanguage, Values: []string{d1.Language, d2.Language}},
			{Label: rowRent, Values: []string{rent(d1), rent(d2)}},
			{Label: rowTopVisa, Values: []string{topVisa(d1), topVisa(d2)}},
			{Label: rowVisaCount, Values: []string{
				fmt.Sprintf("%d options", len(d1.Visas)),
				fmt.Sprintf("%d options", len(d2.Visas)),
			}},
		},
	}
	switch req.Focus {
	case FocusCost:
		cmp.Highlight = rowRent
	case FocusVisa:
		cmp.Highlight = rowTopVisa
	}

	v := View{
		Title:    orDefault(req.Title, d1.CountryName+" vs "+d2.CountryName),
		Subtitle: orDefault(req.Subtitle, "Side-by-side comparison"),
		Blocks:   []Block{cmp},
	}

	if req.Focus == FocusLifestyle || req.Focus == FocusAll {
		v.Blocks = append(v.Blocks, ProsConsBlock{
			Title: d1.CountryName + " Highlights",
			Pros:  d1.HighlightTexts(3),
			Cons:  comparisonCons,
		})
	}

	return v
}

func costBreakdownView(req Request, d *destination.Destination) View {
	city, ok := d.PrimaryCity()
	if !ok {
		return View{
			Title:  "Cost data not available",
			Blocks: []Block{TextBlock{Content: "Cost of living data not found for this destination."}},
		}
	}

	return View{
		Title:    orDefault(req.Title, "Cost of Living in "+city.CityName),
		Subtitle: orDefault(req.Subtitle, d.CountryName),
		Blocks:   []Block{costChart(city)},
	}
}

func prosConsView(req Request, d *destination.Destination) View {
	return View{
		Title:    orDefault(req.Title, d.CountryName+": Pros & Cons"),
		Subtitle: orDefault(req.Subtitle, "Things to consider"),
		Blocks: []Block{ProsConsBlock{
			Pros: d.HighlightTexts(5),
			Cons: prosConsCons,
		}},
	}
}

func analysisView(req Request) View {
	return View{
		Title:    orDefault(req.Title, "Analysis"),
		Subtitle: req.Subtitle,
		Blocks: []Block{TextBlock{
			Content: fmt.Sprintf("Analysis for: %s. Focus: %s", req.Countries, orDefault(req.Focus, "general")),
		}},
	}
}

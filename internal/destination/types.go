package destination

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

// QuickFact is a single icon/label/value triple shown on a destination card.
type QuickFact struct {
	Icon  string `json:"icon"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Highlight is a short selling point. Stored either as an object or a bare string.
type Highlight struct {
	Icon string `json:"icon,omitempty"`
	Text string `json:"text"`
}

// UnmarshalJSON accepts both {"icon","text"} objects and plain strings.
func (h *Highlight) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*h = Highlight{Text: s}
		return nil
	}

	type plain Highlight
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*h = Highlight(p)
	return nil
}

// Visa describes one visa or residency route.
type Visa struct {
	Name           string   `json:"name"`
	Type           string   `json:"type,omitempty"`
	Description    string   `json:"description,omitempty"`
	Duration       string   `json:"duration,omitempty"`
	Requirements   []string `json:"requirements,omitempty"`
	ProcessingTime string   `json:"processingTime,omitempty"`
	Cost           string   `json:"cost,omitempty"`
}

// CostCity holds monthly cost-of-living figures for one city.
type CostCity struct {
	CityName       string  `json:"cityName"`
	Rent1BRCenter  float64 `json:"rent1BRCenter,omitempty"`
	Rent1BROutside float64 `json:"rent1BROutside,omitempty"`
	Rent3BRCenter  float64 `json:"rent3BRCenter,omitempty"`
	Utilities      float64 `json:"utilities,omitempty"`
	Groceries      float64 `json:"groceries,omitempty"`
	Transportation float64 `json:"transportation,omitempty"`
	Dining         float64 `json:"dining,omitempty"`
	CostIndex      float64 `json:"costIndex,omitempty"`
	Currency       string  `json:"currency,omitempty"`
}

// CostOfLiving is the per-city cost list. The column defaults to an empty
// object, so anything that is not an array decodes to no cities.
type CostOfLiving []CostCity

// UnmarshalJSON tolerates the object form and null.
func (c *CostOfLiving) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '[' {
		*c = CostOfLiving{}
		return nil
	}

	var cities []CostCity
	if err := json.Unmarshal(b, &cities); err != nil {
		return err
	}
	*c = cities
	return nil
}

// MarshalJSON writes an empty array rather than null.
func (c CostOfLiving) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]CostCity(c))
}

// JobMarket summarises employment prospects.
type JobMarket struct {
	TopIndustries   []string          `json:"topIndustries,omitempty"`
	GrowingSectors  []string          `json:"growingSectors,omitempty"`
	AvgSalaryTech   float64           `json:"avgSalaryTech,omitempty"`
	InDemandSectors []string          `json:"in_demand_sectors,omitempty"`
	AvgSalaries     map[string]string `json:"avg_salaries,omitempty"`
}

// FAQ is a question/answer pair.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Enrichment holds the schema-reserved JSON columns that are not required
// to be populated. Values are kept as raw JSON.
type Enrichment struct {
	EducationStats        json.RawMessage `json:"education_stats,omitempty"`
	CompanyIncorporation  json.RawMessage `json:"company_incorporation,omitempty"`
	PropertyInfo          json.RawMessage `json:"property_info,omitempty"`
	ExpatriateScheme      json.RawMessage `json:"expatriate_scheme,omitempty"`
	ResidencyRequirements json.RawMessage `json:"residency_requirements,omitempty"`
	ClimateData           json.RawMessage `json:"climate_data,omitempty"`
	CrimeSafety           json.RawMessage `json:"crime_safety,omitempty"`
	Healthcare            json.RawMessage `json:"healthcare,omitempty"`
	Lifestyle             json.RawMessage `json:"lifestyle,omitempty"`
	Infrastructure        json.RawMessage `json:"infrastructure,omitempty"`
	DiningNightlife       json.RawMessage `json:"dining_nightlife,omitempty"`
	CapitalOverview       json.RawMessage `json:"capital_overview,omitempty"`
	QualityOfLife         json.RawMessage `json:"quality_of_life,omitempty"`
	CurrencyInfo          json.RawMessage `json:"currency_info,omitempty"`
	DigitalNomadInfo      json.RawMessage `json:"digital_nomad_info,omitempty"`
	ComparisonHighlights  json.RawMessage `json:"comparison_highlights,omitempty"`
	Images                json.RawMessage `json:"images,omitempty"`
	PropertyMarket        json.RawMessage `json:"property_market,omitempty"`
	EducationData         json.RawMessage `json:"education_data,omitempty"`
}

// Destination is one country record from the destinations table.
type Destination struct {
	Slug         string       `json:"slug"`
	CountryName  string       `json:"country_name"`
	Flag         string       `json:"flag"`
	Region       string       `json:"region"`
	Language     string       `json:"language"`
	HeroTitle    string       `json:"hero_title"`
	HeroSubtitle string       `json:"hero_subtitle"`
	HeroImageURL string       `json:"hero_image_url,omitempty"`
	QuickFacts   []QuickFact  `json:"quick_facts"`
	Highlights   []Highlight  `json:"highlights"`
	Visas        []Visa       `json:"visas"`
	CostOfLiving CostOfLiving `json:"cost_of_living"`
	JobMarket    JobMarket    `json:"job_market"`
	FAQs         []FAQ        `json:"faqs"`
	Enrichment
	Enabled   bool      `json:"enabled"`
	Priority  int       `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PrimaryCity returns the first cost-of-living city, if any.
func (d *Destination) PrimaryCity() (CostCity, bool) {
	if len(d.CostOfLiving) == 0 {
		return CostCity{}, false
	}
	return d.CostOfLiving[0], true
}

// HighlightTexts returns the text of the first n highlights.
func (d *Destination) HighlightTexts(n int) []string {
	texts := make([]string, 0, n)
	for _, h := range d.Highlights {
		if len(texts) == n {
			break
		}
		texts = append(texts, h.Text)
	}
	return texts
}

// Normalize replaces nil containers with empty ones so every JSON field
// serialises as an empty container rather than null.
func (d *Destination) Normalize() {
	if d.QuickFacts == nil {
		d.QuickFacts = []QuickFact{}
	}
	if d.Highlights == nil {
		d.Highlights = []Highlight{}
	}
	if d.Visas == nil {
		d.Visas = []Visa{}
	}
	if d.CostOfLiving == nil {
		d.CostOfLiving = CostOfLiving{}
	}
	if d.FAQs == nil {
		d.FAQs = []FAQ{}
	}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Slugify converts a country name to its slug: lowercase, whitespace runs → hyphens.
func Slugify(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

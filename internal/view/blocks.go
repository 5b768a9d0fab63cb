package view

import (
	"encoding/json"
	"fmt"
)

// Block type tags as they appear on the wire.
const (
	TypeKPI        = "kpi"
	TypeCostChart  = "cost_chart"
	TypeProsCons   = "pros_cons"
	TypeComparison = "comparison"
	TypeText       = "text"
)

// Block is one typed unit of a generated view. The set of implementations
// is closed; OtherBlock carries any tag this package does not know.
type Block interface {
	Type() string
	isBlock()
}

// KPIBlock is a single headline figure.
type KPIBlock struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Icon  string `json:"icon,omitempty"`
}

// CostItem is one bar of a cost chart.
type CostItem struct {
	Label    string  `json:"label"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// CostChartBlock is a monthly expense breakdown.
type CostChartBlock struct {
	Title    string     `json:"title"`
	Currency string     `json:"currency"`
	Items    []CostItem `json:"items"`
}

// ProsConsBlock lists advantages against drawbacks.
type ProsConsBlock struct {
	Title string   `json:"title,omitempty"`
	Pros  []string `json:"pros"`
	Cons  []string `json:"cons"`
}

// ComparisonRow is one labelled row with a value per country.
type ComparisonRow struct {
	Label  string   `json:"label"`
	Values []string `json:"values"`
}

// ComparisonBlock is a side-by-side table.
type ComparisonBlock struct {
	Countries []string        `json:"countries"`
	Flags     []string        `json:"flags"`
	Items     []ComparisonRow `json:"items"`
	Highlight string          `json:"highlight,omitempty"`
}

// TextBlock is free-form prose.
type TextBlock struct {
	Content string `json:"content"`
}

// OtherBlock preserves a block with an unrecognised tag.
type OtherBlock struct {
	Tag   string
	Props json.RawMessage
}

func (KPIBlock) Type() string        { return TypeKPI }
func (CostChartBlock) Type() string  { return TypeCostChart }
func (ProsConsBlock) Type() string   { return TypeProsCons }
func (ComparisonBlock) Type() string { return TypeComparison }
func (TextBlock) Type() string       { return TypeText }
func (b OtherBlock) Type() string    { return b.Tag }

func (KPIBlock) isBlock()        {}
func (CostChartBlock) isBlock()  {}
func (ProsConsBlock) isBlock()   {}
func (ComparisonBlock) isBlock() {}
func (TextBlock) isBlock()       {}
func (OtherBlock) isBlock()      {}

// envelope is the wire form of a block.
type envelope struct {
	Type  string          `json:"type"`
	Props json.RawMessage `json:"props"`
}

func encodeBlock(b Block) (envelope, error) {
	if o, ok := b.(OtherBlock); ok {
		props := o.Props
		if len(props) == 0 {
			props = json.RawMessage("{}")
		}
		return envelope{Type: o.Tag, Props: props}, nil
	}

	props, err := json.Marshal(b)
	if err != nil {
		return envelope{}, fmt.Errorf("marshaling %s block: %w", b.Type(), err)
	}
	return envelope{Type: b.Type(), Props: props}, nil
}

func decodeBlock(e envelope) (Block, error) {
	var (
		b   Block
		err error
	)
	switch e.Type {
	case TypeKPI:
		var v KPIBlock
		err = unmarshalProps(e.Props, &v)
		b = v
	case TypeCostChart:
		var v CostChartBlock
		err = unmarshalProps(e.Props, &v)
		b = v
	case TypeProsCons:
		var v ProsConsBlock
		err = unmarshalProps(e.Props, &v)
		b = v
	case TypeComparison:
		var v ComparisonBlock
		err = unmarshalProps(e.Props, &v)
		b = v
	case TypeText:
		var v TextBlock
		err = unmarshalProps(e.Props, &v)
		b = v
	default:
		return OtherBlock{Tag: e.Type, Props: e.Props}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshaling %s block: %w", e.Type, err)
	}
	return b, nil
}

func unmarshalProps(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// View is a generated dashboard: a title, optional subtitle and ordered blocks.
type View struct {
	Title    string
	Subtitle string
	Blocks   []Block
}

type wireView struct {
	Title    string     `json:"title"`
	Subtitle string     `json:"subtitle,omitempty"`
	Blocks   []envelope `json:"blocks"`
}

func (v View) MarshalJSON() ([]byte, error) {
	w := wireView{Title: v.Title, Subtitle: v.Subtitle, Blocks: make([]envelope, 0, len(v.Blocks))}
	for _, b := range v.Blocks {
		e, err := encodeBlock(b)
		if err != nil {
			return nil, err
		}
		w.Blocks = append(w.Blocks, e)
	}
	return json.Marshal(w)
}

func (v *View) UnmarshalJSON(data []byte) error {
	var w wireView
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	blocks := make([]Block, 0, len(w.Blocks))
	for _, e := range w.Blocks {
		b, err := decodeBlock(e)
		if err != nil {
			return err
		}
		blocks = append(blocks, b)
	}

	*v = View{Title: w.Title, Subtitle: w.Subtitle, Blocks: blocks}
	return nil
}

// Package dataset assembles every tea-culture source into one immutable
// Bundle and keeps it for the life of the process.
package dataset

import (
	"bytes"
	"encoding/json"
	"reflect"

	"github.com/dgallion1/teascroll/internal/doctree"
)

// Bundle is the merged, normalized snapshot served to every page.
// A *Bundle handed out by the Cache must not be mutated.
type Bundle struct {
	PriceSeries        []PriceRecord       `json:"priceSeries"`
	TradeRoutes        TradeRoutes         `json:"tradeRoutes"`
	CultureSpread      CultureSpread       `json:"cultureSpread"`
	ProductionRecords  []ProcessStep       `json:"productionRecords"`
	HistoricalTeaAreas HistoricalTeaAreas  `json:"historicalTeaAreas"`
	TeaProcessSteps    []ProcessStep       `json:"teaProcessSteps"`
	Readings           []*doctree.Document `json:"readings"`
}

// PriceRecord is one row of the historical price table.
type PriceRecord struct {
	Dynasty    string            `json:"dynasty"`
	Year       string            `json:"year,omitempty"`
	TeaType    string            `json:"tea_type"`
	PriceLiang float64           `json:"price_liang"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// ProcessStep is one stage of tea making, used for both the production
// table and the built-in process walkthrough.
type ProcessStep struct {
	Step        int               `json:"step"`
	Name        string            `json:"name"`
	Duration    string            `json:"duration,omitempty"`
	Tool        string            `json:"tool,omitempty"`
	Description string            `json:"description,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// TradeRoutes is the tea-horse and maritime trade graph.
type TradeRoutes struct {
	Nodes []TradeNode `json:"nodes"`
	Links []TradeLink `json:"links"`
}

type TradeNode struct {
	Name        string    `json:"name"`
	Value       []float64 `json:"value,omitempty"`
	Category    Text      `json:"category,omitempty"`
	SymbolSize  float64   `json:"symbolSize,omitempty"`
	Description string    `json:"description,omitempty"`
}

type TradeLink struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Value  float64 `json:"value,omitempty"`
	Label  Text    `json:"label,omitempty"`
}

// CultureSpread describes how tea culture travelled abroad.
// ProcessedRoutes is derived from Routes and never read from disk.
type CultureSpread struct {
	Title            string            `json:"title"`
	Period           string            `json:"period"`
	DataSource       string            `json:"dataSource"`
	Nodes            []CultureNode     `json:"nodes"`
	Routes           []Route           `json:"routes"`
	HistoricalEvents []HistoricalEvent `json:"historicalEvents"`
	ProcessedRoutes  []ProcessedRoute  `json:"processedRoutes"`
}

type CultureNode struct {
	Name        string    `json:"name"`
	Value       []float64 `json:"value,omitempty"`
	Year        Text      `json:"year,omitempty"`
	Description string    `json:"description,omitempty"`
}

// Route is a polyline of [lng, lat] pairs.
type Route struct {
	Name string      `json:"name,omitempty"`
	Path [][]float64 `json:"path"`
}

type HistoricalEvent struct {
	Year        Text   `json:"year"`
	Event       string `json:"event"`
	Description string `json:"description,omitempty"`
}

// ProcessedRoute is a Route decorated for the animated map layer.
type ProcessedRoute struct {
	Name      string      `json:"name,omitempty"`
	Coords    [][]float64 `json:"coords"`
	LineStyle LineStyle   `json:"lineStyle"`
	Effect    Effect      `json:"effect"`
}

type LineStyle struct {
	Color     string  `json:"color"`
	Width     float64 `json:"width"`
	Opacity   float64 `json:"opacity"`
	Curveness float64 `json:"curveness"`
}

type Effect struct {
	Show        bool    `json:"show"`
	Period      float64 `json:"period"`
	TrailLength float64 `json:"trailLength"`
	Symbol      string  `json:"symbol"`
	SymbolSize  float64 `json:"symbolSize"`
}

// HistoricalTeaAreas lists tea-producing regions per dynasty plus the map
// layer that plots them.
type HistoricalTeaAreas struct {
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	Dynasties         []Dynasty         `json:"dynasties"`
	Comparison        map[string]any    `json:"comparison"`
	VisualizationData VisualizationData `json:"visualizationData"`
}

type Dynasty struct {
	Name     string    `json:"name"`
	Period   Text      `json:"period,omitempty"`
	TeaAreas []TeaArea `json:"teaAreas"`
}

type TeaArea struct {
	Region      string   `json:"region"`
	TeaTypes    []string `json:"teaTypes"`
	Description string   `json:"description,omitempty"`
}

type VisualizationData struct {
	MapCoordinates map[string][]MapPoint `json:"mapCoordinates"`
}

// MapPoint is one plotted place. Fields other than name and teaTypes are
// carried through untouched in Attrs.
type MapPoint struct {
	Name     string
	TeaTypes string // joined tea types of the matching area
	Attrs    map[string]json.RawMessage

	// Matched is set when an area of the same dynasty shares the name. A
	// matched area may list no tea types, so TeaTypes alone cannot say.
	Matched bool
}

func (p MapPoint) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Attrs)+2)
	for k, v := range p.Attrs {
		out[k] = v
	}
	out["name"] = p.Name
	if p.Matched || p.TeaTypes != "" {
		out["teaTypes"] = p.TeaTypes
	}
	return json.Marshal(out)
}

func (p *MapPoint) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	*p = MapPoint{}
	if raw, ok := fields["name"]; ok {
		var name Text
		if err := json.Unmarshal(raw, &name); err != nil {
			return err
		}
		p.Name = string(name)
		delete(fields, "name")
	}
	if raw, ok := fields["teaTypes"]; ok {
		var tt Text
		if err := json.Unmarshal(raw, &tt); err == nil {
			p.TeaTypes = string(tt)
			p.Matched = true
		}
		delete(fields, "teaTypes")
	}
	for k, raw := range fields {
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return err
		}
		fields[k] = buf.Bytes()
	}
	if len(fields) > 0 {
		p.Attrs = fields
	}
	return nil
}

// Text accepts a JSON string, number or boolean and keeps it as text, so a
// year may be written 780 or "780年".
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*t = ""
	case string:
		*t = Text(x)
	case float64, bool:
		*t = Text(bytes.TrimSpace(b))
	default:
		return &json.UnmarshalTypeError{Value: "object", Type: reflect.TypeOf(*t)}
	}
	return nil
}

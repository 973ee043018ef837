package dataset

import "strings"

const (
	defaultSpreadTitle      = "中国茶文化传播"
	defaultSpreadPeriod     = "唐代至今"
	defaultSpreadDataSource = "历史文献整理"
	defaultAreasTitle       = "历代茶区分布"

	// teaTypeSeparator joins an area's tea types for the map tooltip.
	teaTypeSeparator = "、"
)

var (
	routeLineStyle = LineStyle{Color: "#8b5a2b", Width: 2, Opacity: 0.8, Curveness: 0.2}
	routeEffect    = Effect{Show: true, Period: 6, TrailLength: 0.7, Symbol: "arrow", SymbolSize: 6}
)

// DefaultProcessSteps is the Song-dynasty tribute tea walkthrough used when
// no tea_process document is provided.
func DefaultProcessSteps() []ProcessStep {
	return []ProcessStep{
		{Step: 1, Name: "采茶", Duration: "清晨至午前", Tool: "金花银篓"},
		{Step: 2, Name: "蒸青", Duration: "三蒸三晾", Tool: "青铜甑釜"},
		{Step: 3, Name: "研膏", Duration: "昼夜捣研", Tool: "青石茶臼"},
	}
}

// Empty returns a bundle where every section holds its default.
func Empty() *Bundle {
	b := Complete(Bundle{})
	return &b
}

// Complete fills every absent field with its default and recomputes the
// derived fields. It never mutates b's slices or maps, and
// Complete(Complete(b)) equals Complete(b).
func Complete(b Bundle) Bundle {
	out := Bundle{
		PriceSeries:        orEmpty(b.PriceSeries),
		TradeRoutes:        completeTradeRoutes(b.TradeRoutes),
		CultureSpread:      completeCultureSpread(b.CultureSpread),
		ProductionRecords:  orEmpty(b.ProductionRecords),
		HistoricalTeaAreas: completeTeaAreas(b.HistoricalTeaAreas),
		TeaProcessSteps:    b.TeaProcessSteps,
		Readings:           orEmpty(b.Readings),
	}
	if len(out.TeaProcessSteps) == 0 {
		out.TeaProcessSteps = DefaultProcessSteps()
	}
	return out
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// completeTradeRoutes treats nodes as a set keyed by name and links as a set
// keyed by (source, target, label); the first occurrence wins.
func completeTradeRoutes(r TradeRoutes) TradeRoutes {
	out := TradeRoutes{
		Nodes: make([]TradeNode, 0, len(r.Nodes)),
		Links: make([]TradeLink, 0, len(r.Links)),
	}
	seenNode := make(map[string]bool, len(r.Nodes))
	for _, n := range r.Nodes {
		if seenNode[n.Name] {
			continue
		}
		seenNode[n.Name] = true
		out.Nodes = append(out.Nodes, n)
	}
	type linkKey struct{ source, target, label string }
	seenLink := make(map[linkKey]bool, len(r.Links))
	for _, l := range r.Links {
		k := linkKey{l.Source, l.Target, string(l.Label)}
		if seenLink[k] {
			continue
		}
		seenLink[k] = true
		out.Links = append(out.Links, l)
	}
	return out
}

func completeCultureSpread(c CultureSpread) CultureSpread {
	out := CultureSpread{
		Title:            orDefault(c.Title, defaultSpreadTitle),
		Period:           orDefault(c.Period, defaultSpreadPeriod),
		DataSource:       orDefault(c.DataSource, defaultSpreadDataSource),
		Nodes:            orEmpty(c.Nodes),
		Routes:           make([]Route, len(c.Routes)),
		HistoricalEvents: orEmpty(c.HistoricalEvents),
	}
	for i, r := range c.Routes {
		out.Routes[i] = Route{Name: r.Name, Path: orEmpty(r.Path)}
	}
	out.ProcessedRoutes = processRoutes(out.Routes)
	return out
}

// processRoutes decorates each route for the animated lines layer. It reads
// only routes, so it can be rerun at will.
func processRoutes(routes []Route) []ProcessedRoute {
	out := make([]ProcessedRoute, len(routes))
	for i, r := range routes {
		coords := make([][]float64, len(r.Path))
		for j, pt := range r.Path {
			coords[j] = append([]float64(nil), pt...)
		}
		out[i] = ProcessedRoute{
			Name:      r.Name,
			Coords:    coords,
			LineStyle: routeLineStyle,
			Effect:    routeEffect,
		}
	}
	return out
}

func completeTeaAreas(h HistoricalTeaAreas) HistoricalTeaAreas {
	out := HistoricalTeaAreas{
		Title:       orDefault(h.Title, defaultAreasTitle),
		Description: h.Description,
		Dynasties:   make([]Dynasty, len(h.Dynasties)),
		Comparison:  h.Comparison,
	}
	if out.Comparison == nil {
		out.Comparison = map[string]any{}
	}
	for i, d := range h.Dynasties {
		areas := make([]TeaArea, len(d.TeaAreas))
		for j, a := range d.TeaAreas {
			a.TeaTypes = orEmpty(a.TeaTypes)
			areas[j] = a
		}
		out.Dynasties[i] = Dynasty{Name: d.Name, Period: d.Period, TeaAreas: areas}
	}
	out.VisualizationData.MapCoordinates = joinTeaTypes(out.Dynasties, h.VisualizationData.MapCoordinates)
	return out
}

// joinTeaTypes annotates each map point whose name equals a region of the
// same dynasty with that area's tea types. Points with no match carry no
// tea types. Keys are compared exactly; if a region repeats, the first
// area wins.
func joinTeaTypes(dynasties []Dynasty, coords map[string][]MapPoint) map[string][]MapPoint {
	index := make(map[string]map[string][]string, len(dynasties))
	for _, d := range dynasties {
		regions, ok := index[d.Name]
		if !ok {
			regions = make(map[string][]string, len(d.TeaAreas))
			index[d.Name] = regions
		}
		for _, a := range d.TeaAreas {
			if _, dup := regions[a.Region]; !dup {
				regions[a.Region] = a.TeaTypes
			}
		}
	}

	out := make(map[string][]MapPoint, len(coords))
	for dynasty, points := range coords {
		joined := make([]MapPoint, len(points))
		for i, p := range points {
			types, ok := index[dynasty][p.Name]
			p.TeaTypes = strings.Join(types, teaTypeSeparator)
			p.Matched = ok
			joined[i] = p
		}
		out[dynasty] = joined
	}
	return out
}

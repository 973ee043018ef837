package dataset

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyHasEveryDefault(t *testing.T) {
	b := Empty()

	assert.NotNil(t, b.PriceSeries)
	assert.Empty(t, b.PriceSeries)
	assert.NotNil(t, b.TradeRoutes.Nodes)
	assert.NotNil(t, b.TradeRoutes.Links)
	assert.Equal(t, "中国茶文化传播", b.CultureSpread.Title)
	assert.Equal(t, "唐代至今", b.CultureSpread.Period)
	assert.Equal(t, "历史文献整理", b.CultureSpread.DataSource)
	assert.NotNil(t, b.CultureSpread.ProcessedRoutes)
	assert.Equal(t, "历代茶区分布", b.HistoricalTeaAreas.Title)
	assert.NotNil(t, b.HistoricalTeaAreas.Comparison)
	assert.NotNil(t, b.HistoricalTeaAreas.VisualizationData.MapCoordinates)
	require.Len(t, b.TeaProcessSteps, 3)
	assert.Equal(t, "采茶", b.TeaProcessSteps[0].Name)
	assert.Equal(t, "蒸青", b.TeaProcessSteps[1].Name)
	assert.Equal(t, "研膏", b.TeaProcessSteps[2].Name)

	out, err := json.Marshal(b)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "null")
}

func TestEmptyReturnsFreshCopies(t *testing.T) {
	a, b := Empty(), Empty()
	assert.NotSame(t, a, b)
	a.TeaProcessSteps[0].Name = "changed"
	assert.Equal(t, "采茶", b.TeaProcessSteps[0].Name)
}

func TestJoinTeaTypes(t *testing.T) {
	b := Complete(Bundle{HistoricalTeaAreas: HistoricalTeaAreas{
		Dynasties: []Dynasty{{
			Name:     "宋",
			TeaAreas: []TeaArea{{Region: "建州", TeaTypes: []string{"龙团", "凤饼"}}},
		}},
		VisualizationData: VisualizationData{MapCoordinates: map[string][]MapPoint{
			"宋": {
				{Name: "建州", Attrs: map[string]json.RawMessage{"value": json.RawMessage(`[118.3,27.0]`)}},
				{Name: "Unknown"},
			},
		}},
	}})

	points := b.HistoricalTeaAreas.VisualizationData.MapCoordinates["宋"]
	require.Len(t, points, 2)
	assert.Equal(t, "龙团、凤饼", points[0].TeaTypes)
	assert.Equal(t, "", points[1].TeaTypes)

	out, err := json.Marshal(points)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"建州","teaTypes":"龙团、凤饼","value":[118.3,27.0]},{"name":"Unknown"}]`, string(out))
}

func TestJoinTeaTypesIsPerDynastyAndFirstWins(t *testing.T) {
	coords := joinTeaTypes(
		[]Dynasty{
			{Name: "唐", TeaAreas: []TeaArea{
				{Region: "湖州", TeaTypes: []string{"紫笋"}},
				{Region: "湖州", TeaTypes: []string{"其他"}},
			}},
			{Name: "宋", TeaAreas: []TeaArea{{Region: "建州", TeaTypes: []string{"龙团"}}}},
		},
		map[string][]MapPoint{
			"唐": {{Name: "湖州"}, {Name: "建州"}},
			"明": {{Name: "湖州", TeaTypes: "stale"}},
		},
	)

	assert.Equal(t, "紫笋", coords["唐"][0].TeaTypes)
	assert.Equal(t, "", coords["唐"][1].TeaTypes, "region from another dynasty must not match")
	assert.Equal(t, "", coords["明"][0].TeaTypes, "stale value is recomputed")
}

func TestProcessedRoutesMirrorRoutes(t *testing.T) {
	b := Complete(Bundle{CultureSpread: CultureSpread{
		Title: "茶路",
		Routes: []Route{
			{Name: "茶马古道", Path: [][]float64{{100.2, 25.6}, {91.1, 29.6}}},
			{Name: "空路"},
		},
	}})

	c := b.CultureSpread
	assert.Equal(t, "茶路", c.Title)
	require.Len(t, c.ProcessedRoutes, 2)
	assert.Equal(t, "茶马古道", c.ProcessedRoutes[0].Name)
	assert.Equal(t, [][]float64{{100.2, 25.6}, {91.1, 29.6}}, c.ProcessedRoutes[0].Coords)
	assert.Equal(t, routeLineStyle, c.ProcessedRoutes[0].LineStyle)
	assert.Equal(t, routeEffect, c.ProcessedRoutes[0].Effect)
	assert.NotNil(t, c.ProcessedRoutes[1].Coords)
	assert.Empty(t, c.ProcessedRoutes[1].Coords)
}

func TestTradeRoutesDeduplicate(t *testing.T) {
	b := Complete(Bundle{TradeRoutes: TradeRoutes{
		Nodes: []TradeNode{{Name: "雅安"}, {Name: "拉萨"}, {Name: "雅安", Description: "dup"}},
		Links: []TradeLink{
			{Source: "雅安", Target: "拉萨", Label: "茶马"},
			{Source: "雅安", Target: "拉萨", Label: "茶马"},
			{Source: "雅安", Target: "拉萨", Label: "盐"},
		},
	}})

	require.Len(t, b.TradeRoutes.Nodes, 2)
	assert.Equal(t, "", b.TradeRoutes.Nodes[0].Description)
	assert.Len(t, b.TradeRoutes.Links, 2)
}

func TestCompleteIsIdempotent(t *testing.T) {
	in := Bundle{
		PriceSeries: []PriceRecord{{Dynasty: "宋", TeaType: "龙团", PriceLiang: 40}},
		CultureSpread: CultureSpread{
			Routes: []Route{{Name: "海上茶路", Path: [][]float64{{118, 24}, {103, 1}}}},
		},
		HistoricalTeaAreas: HistoricalTeaAreas{
			Dynasties: []Dynasty{{Name: "宋", TeaAreas: []TeaArea{{Region: "建州", TeaTypes: []string{"龙团", "凤饼"}}}}},
			VisualizationData: VisualizationData{MapCoordinates: map[string][]MapPoint{
				"宋": {{Name: "建州"}, {Name: "Unknown"}},
			}},
		},
	}

	once := Complete(in)
	twice := Complete(once)
	assert.Equal(t, once, twice)

	a, err := json.Marshal(once)
	require.NoError(t, err)
	b, err := json.Marshal(twice)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestCompleteDoesNotMutateInput(t *testing.T) {
	points := []MapPoint{{Name: "建州"}}
	in := Bundle{HistoricalTeaAreas: HistoricalTeaAreas{
		Dynasties: []Dynasty{{Name: "宋", TeaAreas: []TeaArea{{Region: "建州", TeaTypes: []string{"龙团"}}}}},
		VisualizationData: VisualizationData{MapCoordinates: map[string][]MapPoint{"宋": points}},
	}}

	_ = Complete(in)
	assert.Equal(t, "", points[0].TeaTypes)
	assert.Nil(t, in.CultureSpread.ProcessedRoutes)
}

func TestTextAcceptsNumbersAndStrings(t *testing.T) {
	var ev []HistoricalEvent
	require.NoError(t, json.Unmarshal([]byte(`[{"year":780,"event":"茶经"},{"year":"1391年","event":"废团改散"}]`), &ev))
	assert.Equal(t, Text("780"), ev[0].Year)
	assert.Equal(t, Text("1391年"), ev[1].Year)

	var bad HistoricalEvent
	assert.Error(t, json.Unmarshal([]byte(`{"year":{"a":1}}`), &bad))
}

func TestSectionLookup(t *testing.T) {
	b := Empty()
	for _, name := range SectionNames {
		v, ok := b.Section(name)
		assert.True(t, ok, name)
		assert.NotNil(t, v, name)
	}
	steps, _ := b.Section("process-steps")
	assert.Equal(t, b.TeaProcessSteps, steps)

	_, ok := b.Section("tea_areas")
	assert.False(t, ok)
}

func TestJoinTeaTypesLatinKeys(t *testing.T) {
	coords := joinTeaTypes(
		[]Dynasty{{Name: "Song", TeaAreas: []TeaArea{{Region: "Jianan", TeaTypes: []string{"龙团", "凤饼"}}}}},
		map[string][]MapPoint{"Song": {{Name: "Jianan"}, {Name: "Unknown"}}},
	)

	assert.Equal(t, "龙团、凤饼", coords["Song"][0].TeaTypes)
	out, err := json.Marshal(coords["Song"][1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Unknown"}`, string(out))
}

func TestJoinTeaTypesMatchedWithoutTypes(t *testing.T) {
	coords := joinTeaTypes(
		[]Dynasty{{Name: "Song", TeaAreas: []TeaArea{{Region: "Jianan"}}}},
		map[string][]MapPoint{"Song": {{Name: "Jianan"}, {Name: "Unknown"}}},
	)

	points := coords["Song"]
	assert.True(t, points[0].Matched)
	assert.False(t, points[1].Matched)

	out, err := json.Marshal(points)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Jianan","teaTypes":""},{"name":"Unknown"}]`, string(out))

	var back []MapPoint
	require.NoError(t, json.Unmarshal(out, &back))
	assert.True(t, back[0].Matched, "an explicit empty teaTypes survives a round trip")
	assert.False(t, back[1].Matched)
}

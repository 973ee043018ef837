package dataset

// SectionNames lists the bundle parts addressable by name, in display order.
var SectionNames = []string{
	"prices",
	"routes",
	"culture-spread",
	"production",
	"tea-areas",
	"process-steps",
	"readings",
}

// Section returns one named part of the bundle.
func (b *Bundle) Section(name string) (any, bool) {
	switch name {
	case "prices":
		return b.PriceSeries, true
	case "routes":
		return b.TradeRoutes, true
	case "culture-spread":
		return b.CultureSpread, true
	case "production":
		return b.ProductionRecords, true
	case "tea-areas":
		return b.HistoricalTeaAreas, true
	case "process-steps":
		return b.TeaProcessSteps, true
	case "readings":
		return b.Readings, true
	}
	return nil, false
}

package config

// Command categories, in the order help lists them.
const (
	CategoryInformation  = "🕯️ Information"
	CategoryNationStates = "🌐 NationStates"
	CategoryMaintenance  = "🛠️ Maintenance"
)

var CategoryWeights = map[string]int{
	CategoryInformation:  0,
	CategoryNationStates: 10,
	CategoryMaintenance:  60,
}

// CategoryWeight orders unknown categories last.
func CategoryWeight(category string) int {
	if w, ok := CategoryWeights[category]; ok {
		return w
	}
	return 1000
}

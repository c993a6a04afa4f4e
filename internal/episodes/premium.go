package episodes

import "github.com/samber/lo"

// premiumFields lists the field names a premium marker may arrive under, in lookup order
var premiumFields = []string{"premium", "is_premium"}

// IsPremium reports whether a raw episode record is premium. The first
// premium field that is present and non-null decides; it counts as premium
// when it is the boolean true or the string "true".
func IsPremium(record map[string]any) bool {
	for _, name := range premiumFields {
		value, ok := record[name]
		if !ok || value == nil {
			continue
		}
		return value == true || value == "true"
	}
	return false
}

// FilterPremium returns the premium episodes, keeping their order
func FilterPremium(merged []MergedEpisode) []MergedEpisode {
	return lo.Filter(merged, func(ep MergedEpisode, _ int) bool {
		return ep.Premium
	})
}

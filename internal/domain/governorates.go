package domain

import "strings"

// Governorates is the fixed delivery region list offered at checkout.
var Governorates = []string{
	"Amman",
	"Zarqa",
	"Irbid",
	"Balqa",
	"Madaba",
	"Aqaba",
	"Karak",
	"Tafilah",
	"Ma'an",
	"Jerash",
	"Ajloun",
	"Mafraq",
}

// ValidGovernorate reports whether the value is a member of the fixed
// region list. Matching ignores case and surrounding whitespace.
func ValidGovernorate(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return false
	}
	for _, g := range Governorates {
		if strings.EqualFold(g, trimmed) {
			return true
		}
	}
	return false
}

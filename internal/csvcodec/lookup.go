package csvcodec

import (
	"strings"

	"github.com/kursadbilgin/bulk-submission-engine/internal/domain"
)

var quantityTypeLabels = map[domain.QuantityType]string{
	domain.QuantityTypeActual:   "Actual",
	domain.QuantityTypeEstimate: "Estimate",
}

var quantityUnitLabels = map[domain.QuantityUnit]string{
	domain.QuantityUnitTonne:      "tonnes",
	domain.QuantityUnitCubicMetre: "cubic metres",
	domain.QuantityUnitKilogram:   "kilograms",
	domain.QuantityUnitLitre:      "litres",
}

// QuantityTypeLabel renders a quantity type the way the CSV spells it.
func QuantityTypeLabel(t domain.QuantityType) string { return quantityTypeLabels[t] }

// QuantityUnitLabel renders a quantity unit the way the CSV spells it.
func QuantityUnitLabel(u domain.QuantityUnit) string { return quantityUnitLabels[u] }

// ParseQuantityType accepts the CSV label or the enum name, ignoring case.
func ParseQuantityType(s string) (domain.QuantityType, bool) {
	s = strings.TrimSpace(s)
	for t, label := range quantityTypeLabels {
		if strings.EqualFold(s, label) || strings.EqualFold(s, string(t)) {
			return t, true
		}
	}
	return "", false
}

// ParseQuantityUnit accepts the CSV label or the enum name, ignoring case.
func ParseQuantityUnit(s string) (domain.QuantityUnit, bool) {
	s = strings.TrimSpace(s)
	for u, label := range quantityUnitLabels {
		if strings.EqualFold(s, label) || strings.EqualFold(s, string(u)) {
			return u, true
		}
	}
	return "", false
}

func yesNo(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}

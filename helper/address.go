package helper

import (
	"strings"

	"storefront/model"
)

func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func SnapshotAddress(a model.AddressInput) model.AddressSnapshot {
	return model.AddressSnapshot{
		Street:    strings.TrimSpace(a.Street),
		Number:    strings.TrimSpace(a.Number),
		Apartment: strings.TrimSpace(a.Apartment),
		Floor:     strings.TrimSpace(a.Floor),
		City:      strings.TrimSpace(a.City),
		Zip:       strings.TrimSpace(a.Zip),
		Country:   strings.TrimSpace(a.Country),
	}
}

// JoinAddress renders "Street Number, Apt X, Floor Y, City Zip", skipping
// empty parts.
func JoinAddress(a model.AddressSnapshot) string {
	parts := []string{}
	if line := strings.TrimSpace(a.Street + " " + a.Number); line != "" {
		parts = append(parts, line)
	}
	if a.Apartment != "" {
		parts = append(parts, "Apt "+a.Apartment)
	}
	if a.Floor != "" {
		parts = append(parts, "Floor "+a.Floor)
	}
	if city := strings.TrimSpace(a.City + " " + a.Zip); city != "" {
		parts = append(parts, city)
	}
	if a.Country != "" {
		parts = append(parts, a.Country)
	}
	return strings.Join(parts, ", ")
}

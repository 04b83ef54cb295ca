package helper

import (
	"testing"

	"storefront/model"

	"github.com/stretchr/testify/assert"
)

func TestJoinAddress(t *testing.T) {
	tests := []struct {
		name string
		in   model.AddressInput
		want string
	}{
		{"full", model.AddressInput{Street: "Main St", Number: "5", Apartment: "2B", Floor: "3", City: "Springfield", Zip: "12345"}, "Main St 5, Apt 2B, Floor 3, Springfield 12345"},
		{"street only", model.AddressInput{Street: " Elm ", City: "Oslo"}, "Elm, Oslo"},
		{"empty", model.AddressInput{}, ""},
		{"country", model.AddressInput{Street: "Rua A", Number: "10", City: "Lisboa", Country: "PT"}, "Rua A 10, Lisboa, PT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JoinAddress(SnapshotAddress(tt.in)))
		})
	}
}

package enums

import (
	"fmt"
	"strings"
)

// PropertyType categorizes a catalog listing.
type PropertyType string

const (
	PropertyTypeHouse      PropertyType = "house"
	PropertyTypeApartment  PropertyType = "apartment"
	PropertyTypeVilla      PropertyType = "villa"
	PropertyTypeStudio     PropertyType = "studio"
	PropertyTypeLand       PropertyType = "land"
	PropertyTypeCommercial PropertyType = "commercial"
	PropertyTypeOther      PropertyType = "other"
)

var validPropertyTypes = []PropertyType{
	PropertyTypeHouse,
	PropertyTypeApartment,
	PropertyTypeVilla,
	PropertyTypeStudio,
	PropertyTypeLand,
	PropertyTypeCommercial,
	PropertyTypeOther,
}

func (p PropertyType) String() string {
	return string(p)
}

func (p PropertyType) IsValid() bool {
	for _, candidate := range validPropertyTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePropertyType normalizes raw input (case, surrounding space) into a
// PropertyType.
func ParsePropertyType(value string) (PropertyType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPropertyTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid property type %q", value)
}

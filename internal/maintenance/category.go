package maintenance

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownCategory     = errors.New("unknown maintenance category")
	ErrUnknownUsageProfile = errors.New("unknown usage profile")
)

// Category is one of the fixed maintenance domains tracked for every vehicle.
type Category string

const (
	CategoryOil     Category = "oil"
	CategoryTires   Category = "tires"
	CategoryBrakes  Category = "brakes"
	CategoryBattery Category = "battery"
)

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{CategoryOil, CategoryTires, CategoryBrakes, CategoryBattery}
}

// ParseCategory converts a stored or user-supplied key into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// Valid reports whether c is one of the four known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryOil, CategoryTires, CategoryBrakes, CategoryBattery:
		return true
	default:
		return false
	}
}

// DisplayName returns the human readable name of the category.
func (c Category) DisplayName() string {
	switch c {
	case CategoryOil:
		return "Engine oil"
	case CategoryTires:
		return "Tires"
	case CategoryBrakes:
		return "Brake pads"
	case CategoryBattery:
		return "Battery"
	default:
		return string(c)
	}
}

// Description returns the static explanation shown next to the category.
func (c Category) Description() string {
	switch c {
	case CategoryOil:
		return "Essential for engine lubrication and protection"
	case CategoryTires:
		return "Keep the vehicle safe and gripping the road"
	case CategoryBrakes:
		return "Fundamental for the safety of the vehicle"
	case CategoryBattery:
		return "Powers the starter and the electrical systems"
	default:
		return ""
	}
}

// UsageProfile describes how the vehicle is typically driven.
type UsageProfile string

const (
	UsageCity    UsageProfile = "city"
	UsageHighway UsageProfile = "highway"
	UsageMixed   UsageProfile = "mixed"
)

// ParseUsageProfile converts a stored or user-supplied key into a UsageProfile.
func ParseUsageProfile(s string) (UsageProfile, error) {
	u := UsageProfile(strings.ToLower(strings.TrimSpace(s)))
	switch u {
	case UsageCity, UsageHighway, UsageMixed:
		return u, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownUsageProfile, s)
	}
}

// AverageDistancePerMonth is the fixed monthly distance estimate for the profile.
func (u UsageProfile) AverageDistancePerMonth() int {
	switch u {
	case UsageCity:
		return 800
	case UsageHighway:
		return 2000
	case UsageMixed:
		return 1200
	default:
		return 0
	}
}

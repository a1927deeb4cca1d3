package maintenance

import (
	"errors"
	"fmt"
)

var ErrInvalidInterval = errors.New("invalid maintenance interval")

// Rule is an override of the default interval for one category, either
// suggested by the assistant or edited by the user. AISuggested is kept as
// provenance after a user edit.
type Rule struct {
	Category         Category `json:"type" bson:"maintenance_type"`
	Name             string   `json:"name" bson:"maintenance_name"`
	IntervalMonths   int      `json:"interval_months" bson:"interval_months"`
	IntervalDistance int      `json:"interval_km" bson:"interval_km"`
	Description      string   `json:"description" bson:"description"`
	AISuggested      bool     `json:"ai_suggested" bson:"ai_suggested"`
	UserAdjusted     bool     `json:"user_adjusted" bson:"user_adjusted"`
}

// DefaultRule builds the rule matching the default interval of c.
func DefaultRule(c Category) Rule {
	iv := DefaultIntervals()[c]
	return Rule{
		Category:         c,
		Name:             c.DisplayName(),
		IntervalMonths:   iv.Months,
		IntervalDistance: iv.Distance,
		Description:      c.Description(),
	}
}

// SuggestedRule builds an assistant-suggested rule for c. Time-only
// categories keep a zero distance whatever was suggested.
func SuggestedRule(c Category, iv Interval) Rule {
	r := DefaultRule(c)
	r.IntervalMonths = iv.Months
	if !DefaultIntervals()[c].TimeOnly() {
		r.IntervalDistance = iv.Distance
	}
	r.AISuggested = true
	return r
}

// Interval returns the rule as an Interval.
func (r Rule) Interval() Interval {
	return Interval{Months: r.IntervalMonths, Distance: r.IntervalDistance}
}

// Adjust returns a copy of r carrying a user edit.
func (r Rule) Adjust(months, distance int) (Rule, error) {
	if months <= 0 || distance < 0 {
		return r, fmt.Errorf("%w: months=%d km=%d", ErrInvalidInterval, months, distance)
	}
	if DefaultIntervals()[r.Category].TimeOnly() {
		distance = 0
	}
	r.IntervalMonths = months
	r.IntervalDistance = distance
	r.UserAdjusted = true
	return r, nil
}

package maintenance

import (
	"errors"
	"fmt"
)

// Status is the urgency classification of a single maintenance category.
type Status string

const (
	StatusNormal    Status = "normal"
	StatusAttention Status = "attention"
	StatusCritical  Status = "critical"
)

// Rank orders statuses by urgency; higher is more urgent.
func (s Status) Rank() int {
	switch s {
	case StatusCritical:
		return 3
	case StatusAttention:
		return 2
	case StatusNormal:
		return 1
	default:
		return 0
	}
}

// Interval is how often a category should recur. A zero Distance marks a
// time-only category.
type Interval struct {
	Months   int `json:"months" yaml:"months" bson:"months"`
	Distance int `json:"km" yaml:"km" bson:"km"`
}

// TimeOnly reports whether the interval ignores distance.
func (i Interval) TimeOnly() bool {
	return i.Distance == 0
}

// DefaultIntervals returns a fresh copy of the default interval table.
func DefaultIntervals() map[Category]Interval {
	return map[Category]Interval{
		CategoryOil:     {Months: 6, Distance: 10000},
		CategoryTires:   {Months: 48, Distance: 60000},
		CategoryBrakes:  {Months: 24, Distance: 40000},
		CategoryBattery: {Months: 36, Distance: 0},
	}
}

// Thresholds are the inclusive limits used to classify a projection.
type Thresholds struct {
	CriticalDays      int `json:"critical_days" yaml:"critical_days"`
	CriticalDistance  int `json:"critical_km" yaml:"critical_km"`
	AttentionDays     int `json:"attention_days" yaml:"attention_days"`
	AttentionDistance int `json:"attention_km" yaml:"attention_km"`
}

// DefaultThresholds returns the standard classification limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CriticalDays:      7,
		CriticalDistance:  500,
		AttentionDays:     30,
		AttentionDistance: 2000,
	}
}

// Classify maps remaining days and distance to a Status. The first matching
// rule wins: critical, then attention, then normal.
func (t Thresholds) Classify(daysRemaining, distanceRemaining int) Status {
	if daysRemaining <= t.CriticalDays || distanceRemaining <= t.CriticalDistance {
		return StatusCritical
	}
	if daysRemaining <= t.AttentionDays || distanceRemaining <= t.AttentionDistance {
		return StatusAttention
	}
	return StatusNormal
}

// Config holds every tunable value the Scheduler uses.
type Config struct {
	Thresholds Thresholds            `json:"thresholds" yaml:"thresholds"`
	Intervals  map[Category]Interval `json:"intervals" yaml:"intervals"`
	// UrgencyDistancePerDay converts remaining distance into days when
	// ranking items of equal status.
	UrgencyDistancePerDay float64 `json:"urgency_km_per_day" yaml:"urgency_km_per_day"`
	// TimeOnlyByDate classifies and ranks time-only categories by days
	// alone. When false their remaining distance, always 0, is used like
	// any other category and makes them critical.
	TimeOnlyByDate bool `json:"time_only_by_date" yaml:"time_only_by_date"`
}

// DefaultConfig returns the standard scheduler configuration.
func DefaultConfig() Config {
	return Config{
		Thresholds:            DefaultThresholds(),
		Intervals:             DefaultIntervals(),
		UrgencyDistancePerDay: 50,
	}
}

// Validate checks that the configuration can drive a scheduling pass.
func (c Config) Validate() error {
	var errs []error
	t := c.Thresholds
	if t.CriticalDays < 0 || t.CriticalDistance < 0 || t.AttentionDays < 0 || t.AttentionDistance < 0 {
		errs = append(errs, errors.New("thresholds must be non-negative"))
	}
	if t.CriticalDays > t.AttentionDays || t.CriticalDistance > t.AttentionDistance {
		errs = append(errs, errors.New("critical thresholds must not exceed attention thresholds"))
	}
	if c.UrgencyDistancePerDay <= 0 {
		errs = append(errs, errors.New("urgency_km_per_day must be positive"))
	}
	for cat, iv := range c.Intervals {
		if !cat.Valid() {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownCategory, cat))
			continue
		}
		if iv.Months < 0 || iv.Distance < 0 {
			errs = append(errs, fmt.Errorf("interval for %s must be non-negative", cat))
		}
	}
	return errors.Join(errs...)
}

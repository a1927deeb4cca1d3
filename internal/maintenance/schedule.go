package maintenance

import (
	"math"
	"sort"
	"time"
)

// Vehicle is the read-only snapshot the scheduler works from.
type Vehicle struct {
	ID              string       `json:"id" yaml:"id"`
	Kind            string       `json:"type" yaml:"type"`
	Model           string       `json:"model" yaml:"model"`
	Year            int          `json:"year" yaml:"year"`
	CurrentDistance int          `json:"current_km" yaml:"current_km"`
	Usage           UsageProfile `json:"usage_type" yaml:"usage_type"`
}

// AverageDistancePerMonth is derived from the usage profile only.
func (v Vehicle) AverageDistancePerMonth() int {
	return v.Usage.AverageDistancePerMonth()
}

// HistoryEntry is the last known service of a category. Both fields are
// optional; an empty entry means the category was never serviced.
type HistoryEntry struct {
	Date     *time.Time `json:"date,omitempty" yaml:"date,omitempty"`
	Distance *int       `json:"km,omitempty" yaml:"km,omitempty"`
}

// IsZero reports whether the entry carries no service information.
func (h HistoryEntry) IsZero() bool {
	return h.Date == nil && h.Distance == nil
}

// History maps categories to their last service. Missing keys are allowed.
type History map[Category]HistoryEntry

// Projection is the outcome of projecting one interval forward.
type Projection struct {
	Date              time.Time
	Distance          int
	DaysRemaining     int
	DistanceRemaining int
}

// Item is the scheduling result for one category. Items are rebuilt on
// every pass and never updated in place.
type Item struct {
	Category          Category     `json:"type"`
	Name              string       `json:"name"`
	Status            Status       `json:"status"`
	DaysRemaining     int          `json:"days_remaining"`
	DistanceRemaining int          `json:"km_remaining"`
	LastService       HistoryEntry `json:"last_change"`
	NextDate          time.Time    `json:"next_date"`
	NextDistance      int          `json:"next_km"`
	Interval          Interval     `json:"interval"`
	Description       string       `json:"description"`
}

// AddMonths advances t by the given number of calendar months. When the day
// of month does not exist in the target month it is clamped to the last day,
// so Jan 31 + 1 month is Feb 28 (or 29).
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(target.Year(), target.Month()); d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ProjectNextService projects when and at what distance the next service is
// due. The last service date defaults to now and the last service distance
// defaults to the current distance. Remaining values are clamped at zero.
func ProjectNextService(now time.Time, last HistoryEntry, currentDistance int, interval Interval) Projection {
	baseDate := now
	if last.Date != nil {
		baseDate = *last.Date
	}
	baseDistance := currentDistance
	if last.Distance != nil {
		baseDistance = *last.Distance
	}

	next := AddMonths(baseDate, interval.Months)
	nextDistance := baseDistance + interval.Distance
	days := int(math.Floor(next.Sub(now).Hours() / 24))

	return Projection{
		Date:              next,
		Distance:          nextDistance,
		DaysRemaining:     max(0, days),
		DistanceRemaining: max(0, nextDistance-currentDistance),
	}
}

// Scheduler computes maintenance items from a fixed configuration. It holds
// no mutable state and is safe for concurrent use.
type Scheduler struct {
	cfg Config
}

// NewScheduler builds a Scheduler. Categories missing from cfg.Intervals use
// the default interval, and a non-positive urgency factor falls back to the
// default.
func NewScheduler(cfg Config) *Scheduler {
	def := DefaultConfig()
	intervals := DefaultIntervals()
	for _, c := range Categories() {
		if iv, ok := cfg.Intervals[c]; ok {
			intervals[c] = iv
		}
	}
	cfg.Intervals = intervals
	if cfg.UrgencyDistancePerDay <= 0 {
		cfg.UrgencyDistancePerDay = def.UrgencyDistancePerDay
	}
	return &Scheduler{cfg: cfg}
}

// Config returns a copy of the scheduler configuration.
func (s *Scheduler) Config() Config {
	cfg := s.cfg
	cfg.Intervals = make(map[Category]Interval, len(s.cfg.Intervals))
	for c, iv := range s.cfg.Intervals {
		cfg.Intervals[c] = iv
	}
	return cfg
}

// Interval returns the interval used for c.
func (s *Scheduler) Interval(c Category) Interval {
	return s.cfg.Intervals[c]
}

// WithRules returns a scheduler whose intervals are overridden by the given
// rules. Rules for unknown categories are ignored.
func (s *Scheduler) WithRules(rules ...Rule) *Scheduler {
	cfg := s.Config()
	for _, r := range rules {
		if !r.Category.Valid() {
			continue
		}
		cfg.Intervals[r.Category] = r.Interval()
	}
	return &Scheduler{cfg: cfg}
}

// Classify applies the configured thresholds.
func (s *Scheduler) Classify(daysRemaining, distanceRemaining int) Status {
	return s.cfg.Thresholds.Classify(daysRemaining, distanceRemaining)
}

// BuildItems returns one item per category in the order of Categories().
// The result depends only on its arguments.
func (s *Scheduler) BuildItems(now time.Time, v Vehicle, history History) []Item {
	cats := Categories()
	items := make([]Item, 0, len(cats))
	for _, c := range cats {
		interval := s.cfg.Intervals[c]
		last := history[c]
		p := ProjectNextService(now, last, v.CurrentDistance, interval)

		distanceForStatus := p.DistanceRemaining
		if s.cfg.TimeOnlyByDate && interval.TimeOnly() {
			distanceForStatus = math.MaxInt
		}

		items = append(items, Item{
			Category:          c,
			Name:              c.DisplayName(),
			Status:            s.Classify(p.DaysRemaining, distanceForStatus),
			DaysRemaining:     p.DaysRemaining,
			DistanceRemaining: p.DistanceRemaining,
			LastService:       last,
			NextDate:          p.Date,
			NextDistance:      p.Distance,
			Interval:          interval,
			Description:       c.Description(),
		})
	}
	return items
}

// SelectMostUrgent picks the item needing attention soonest. It returns false
// for an empty slice.
func (s *Scheduler) SelectMostUrgent(items []Item) (Item, bool) {
	if len(items) == 0 {
		return Item{}, false
	}
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Status.Rank() != b.Status.Rank() {
			return a.Status.Rank() > b.Status.Rank()
		}
		return s.urgency(a) < s.urgency(b)
	})
	return sorted[0], true
}

// urgency puts days and distance on one scale. With TimeOnlyByDate set,
// time-only items are ranked by days alone.
func (s *Scheduler) urgency(it Item) float64 {
	days := float64(it.DaysRemaining)
	if s.cfg.TimeOnlyByDate && it.Interval.TimeOnly() {
		return days
	}
	return math.Min(days, float64(it.DistanceRemaining)/s.cfg.UrgencyDistancePerDay)
}

package maintenance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refNow = time.Date(2024, time.March, 15, 9, 30, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func TestThresholds_Classify(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name     string
		days     int
		distance int
		expected Status
	}{
		{"days at critical limit", 7, 9999, StatusCritical},
		{"days just above critical", 8, 9999, StatusAttention},
		{"distance at critical limit", 9999, 500, StatusCritical},
		{"distance just above critical", 9999, 501, StatusAttention},
		{"days at attention limit", 30, 9999, StatusAttention},
		{"distance at attention limit", 9999, 2000, StatusAttention},
		{"both comfortable", 31, 2001, StatusNormal},
		{"zero days", 0, 100000, StatusCritical},
		{"zero distance", 100000, 0, StatusCritical},
		{"distance drives attention even with many days", 365, 1500, StatusAttention},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, th.Classify(tt.days, tt.distance))
		})
	}
}

func TestThresholds_ClassifyMatchesRule(t *testing.T) {
	th := DefaultThresholds()
	for days := 0; days <= 40; days++ {
		for _, distance := range []int{0, 499, 500, 501, 1999, 2000, 2001, 50000} {
			got := th.Classify(days, distance)
			switch {
			case days <= 7 || distance <= 500:
				assert.Equal(t, StatusCritical, got, "days=%d distance=%d", days, distance)
			case days <= 30 || distance <= 2000:
				assert.Equal(t, StatusAttention, got, "days=%d distance=%d", days, distance)
			default:
				assert.Equal(t, StatusNormal, got, "days=%d distance=%d", days, distance)
			}
		}
	}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name     string
		in       time.Time
		months   int
		expected time.Time
	}{
		{"plain", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), 6, time.Date(2024, 9, 15, 0, 0, 0, 0, time.UTC)},
		{"year rollover", time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC), 2, time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)},
		{"clamp to leap february", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"clamp to february", time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC)},
		{"clamp to thirty days", time.Date(2024, 8, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)},
		{"negative months", time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), -1, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"zero months", time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), 0, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)},
		{"keeps time of day", time.Date(2024, 1, 31, 17, 45, 10, 0, time.UTC), 13, time.Date(2025, 2, 28, 17, 45, 10, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.expected.Equal(AddMonths(tt.in, tt.months)), "got %v", AddMonths(tt.in, tt.months))
		})
	}
}

func TestProjectNextService_NoHistory(t *testing.T) {
	p := ProjectNextService(refNow, HistoryEntry{}, 10000, Interval{Months: 6, Distance: 10000})

	assert.Equal(t, 20000, p.Distance)
	assert.Equal(t, 10000, p.DistanceRemaining)
	assert.True(t, p.Date.Equal(time.Date(2024, time.September, 15, 9, 30, 0, 0, time.UTC)))
	assert.Equal(t, 184, p.DaysRemaining)
}

func TestProjectNextService_FromHistory(t *testing.T) {
	last := HistoryEntry{
		Date:     timePtr(time.Date(2024, time.January, 15, 9, 30, 0, 0, time.UTC)),
		Distance: intPtr(38000),
	}
	p := ProjectNextService(refNow, last, 45000, Interval{Months: 6, Distance: 10000})

	assert.Equal(t, 48000, p.Distance)
	assert.Equal(t, 3000, p.DistanceRemaining)
	assert.True(t, p.Date.Equal(time.Date(2024, time.July, 15, 9, 30, 0, 0, time.UTC)))
	assert.Equal(t, 122, p.DaysRemaining)
}

func TestProjectNextService_Clamps(t *testing.T) {
	last := HistoryEntry{
		Date:     timePtr(time.Date(2019, time.June, 1, 0, 0, 0, 0, time.UTC)),
		Distance: intPtr(1000),
	}
	p := ProjectNextService(refNow, last, 90000, Interval{Months: 1, Distance: 500})

	assert.Equal(t, 0, p.DaysRemaining)
	assert.Equal(t, 0, p.DistanceRemaining)
	assert.Equal(t, 1500, p.Distance)
}

func TestProjectNextService_PartialDaysFloor(t *testing.T) {
	last := HistoryEntry{Date: timePtr(time.Date(2023, time.September, 16, 0, 0, 0, 0, time.UTC))}
	p := ProjectNextService(refNow, last, 0, Interval{Months: 6})

	// 2024-03-16 00:00 is 14.5 hours after refNow.
	assert.Equal(t, 0, p.DaysRemaining)
}

func TestScheduler_BuildItems_Order(t *testing.T) {
	s := NewScheduler(DefaultConfig())
	v := Vehicle{ID: "v1", CurrentDistance: 12000, Usage: UsageMixed}

	histories := map[string]History{
		"empty": {},
		"nil":   nil,
		"partial": {
			CategoryBrakes: {Distance: intPtr(5000)},
		},
		"full": {
			CategoryOil:     {Distance: intPtr(11000)},
			CategoryTires:   {Date: timePtr(refNow.AddDate(-1, 0, 0))},
			CategoryBrakes:  {Distance: intPtr(1000)},
			CategoryBattery: {Date: timePtr(refNow.AddDate(-2, 0, 0))},
		},
	}

	for name, h := range histories {
		t.Run(name, func(t *testing.T) {
			items := s.BuildItems(refNow, v, h)
			require.Len(t, items, 4)
			assert.Equal(t, CategoryOil, items[0].Category)
			assert.Equal(t, CategoryTires, items[1].Category)
			assert.Equal(t, CategoryBrakes, items[2].Category)
			assert.Equal(t, CategoryBattery, items[3].Category)
			for _, it := range items {
				assert.GreaterOrEqual(t, it.DaysRemaining, 0)
				assert.GreaterOrEqual(t, it.DistanceRemaining, 0)
				assert.Equal(t, it.Category.DisplayName(), it.Name)
				assert.Equal(t, it.Category.Description(), it.Description)
			}
		})
	}
}

func TestScheduler_BuildItems_OilScenario(t *testing.T) {
	s := NewScheduler(DefaultConfig())
	v := Vehicle{CurrentDistance: 45000, Usage: UsageCity}

	items := s.BuildItems(refNow, v, History{CategoryOil: {Distance: intPtr(40000)}})
	oil := items[0]

	assert.Equal(t, 50000, oil.NextDistance)
	assert.Equal(t, 5000, oil.DistanceRemaining)
	assert.Equal(t, Interval{Months: 6, Distance: 10000}, oil.Interval)
	assert.Equal(t, StatusNormal, oil.Status)

	t.Run("date path raises the status", func(t *testing.T) {
		last := HistoryEntry{
			Distance: intPtr(40000),
			Date:     timePtr(time.Date(2023, time.September, 18, 9, 30, 0, 0, time.UTC)),
		}
		items := s.BuildItems(refNow, v, History{CategoryOil: last})
		assert.Equal(t, 3, items[0].DaysRemaining)
		assert.Equal(t, 5000, items[0].DistanceRemaining)
		assert.Equal(t, StatusCritical, items[0].Status)
	})
}

func TestScheduler_BuildItems_ZeroDistanceInterval(t *testing.T) {
	s := NewScheduler(DefaultConfig())
	items := s.BuildItems(refNow, Vehicle{CurrentDistance: 30000}, nil)
	battery := items[3]

	assert.Equal(t, 0, battery.DistanceRemaining)
	assert.Equal(t, 30000, battery.NextDistance)
	assert.Greater(t, battery.DaysRemaining, 1000)
	assert.Equal(t, StatusCritical, battery.Status)
	assert.Equal(t, s.Classify(battery.DaysRemaining, battery.DistanceRemaining), battery.Status)

	t.Run("status depends only on remaining days and distance", func(t *testing.T) {
		items := s.BuildItems(refNow, Vehicle{CurrentDistance: 60000}, History{CategoryTires: {Distance: intPtr(0)}})
		assert.Equal(t, 0, items[1].DistanceRemaining)
		assert.Equal(t, 0, items[3].DistanceRemaining)
		for _, it := range items {
			assert.Equal(t, s.Classify(it.DaysRemaining, it.DistanceRemaining), it.Status, it.Category)
		}
		assert.Equal(t, items[1].Status, items[3].Status, "same remaining distance, same status")
	})

	t.Run("time only by date", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.TimeOnlyByDate = true
		s := NewScheduler(cfg)

		items := s.BuildItems(refNow, Vehicle{CurrentDistance: 30000}, nil)
		assert.Equal(t, StatusNormal, items[3].Status)

		last := HistoryEntry{Date: timePtr(time.Date(2021, time.April, 1, 0, 0, 0, 0, time.UTC))}
		items = s.BuildItems(refNow, Vehicle{CurrentDistance: 30000}, History{CategoryBattery: last})
		assert.Equal(t, 16, items[3].DaysRemaining)
		assert.Equal(t, StatusAttention, items[3].Status)
	})
}

func TestScheduler_BuildItems_Idempotent(t *testing.T) {
	s := NewScheduler(DefaultConfig())
	v := Vehicle{ID: "v1", CurrentDistance: 45000, Usage: UsageHighway}
	h := History{
		CategoryOil:   {Distance: intPtr(40000)},
		CategoryTires: {Date: timePtr(time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC))},
	}

	first := s.BuildItems(refNow, v, h)
	second := s.BuildItems(refNow, v, h)
	assert.Equal(t, first, second)
}

func TestScheduler_WithRules(t *testing.T) {
	base := NewScheduler(DefaultConfig())
	rule, err := DefaultRule(CategoryOil).Adjust(3, 5000)
	require.NoError(t, err)

	s := base.WithRules(rule, Rule{Category: "coolant", IntervalMonths: 1})
	items := s.BuildItems(refNow, Vehicle{CurrentDistance: 20000}, nil)

	assert.Equal(t, Interval{Months: 3, Distance: 5000}, items[0].Interval)
	assert.Equal(t, 25000, items[0].NextDistance)
	assert.Equal(t, DefaultIntervals()[CategoryTires], items[1].Interval)

	// the base scheduler is untouched
	assert.Equal(t, Interval{Months: 6, Distance: 10000}, base.Interval(CategoryOil))
}

func TestNewScheduler_FillsMissingIntervals(t *testing.T) {
	s := NewScheduler(Config{
		Thresholds: DefaultThresholds(),
		Intervals:  map[Category]Interval{CategoryOil: {Months: 12, Distance: 15000}},
	})

	assert.Equal(t, Interval{Months: 12, Distance: 15000}, s.Interval(CategoryOil))
	assert.Equal(t, DefaultIntervals()[CategoryBrakes], s.Interval(CategoryBrakes))
	assert.Equal(t, 50.0, s.Config().UrgencyDistancePerDay)
}

func TestScheduler_SelectMostUrgent(t *testing.T) {
	s := NewScheduler(DefaultConfig())
	distanceIv := Interval{Months: 6, Distance: 10000}

	t.Run("empty", func(t *testing.T) {
		_, ok := s.SelectMostUrgent(nil)
		assert.False(t, ok)
		_, ok = s.SelectMostUrgent([]Item{})
		assert.False(t, ok)
	})

	t.Run("critical wins regardless of order", func(t *testing.T) {
		critical := Item{Category: CategoryBrakes, Status: StatusCritical, DaysRemaining: 200, DistanceRemaining: 400, Interval: distanceIv}
		normals := []Item{
			{Category: CategoryOil, Status: StatusNormal, DaysRemaining: 40, DistanceRemaining: 3000, Interval: distanceIv},
			{Category: CategoryTires, Status: StatusNormal, DaysRemaining: 100, DistanceRemaining: 9000, Interval: distanceIv},
			{Category: CategoryBattery, Status: StatusNormal, DaysRemaining: 300, Interval: Interval{Months: 36}},
		}
		for pos := 0; pos <= len(normals); pos++ {
			items := append([]Item{}, normals[:pos]...)
			items = append(items, critical)
			items = append(items, normals[pos:]...)

			got, ok := s.SelectMostUrgent(items)
			require.True(t, ok)
			assert.Equal(t, CategoryBrakes, got.Category, "critical at position %d", pos)
		}
	})

	t.Run("fewer days wins among critical", func(t *testing.T) {
		items := []Item{
			{Category: CategoryOil, Status: StatusCritical, DaysRemaining: 10, DistanceRemaining: 90000, Interval: distanceIv},
			{Category: CategoryTires, Status: StatusCritical, DaysRemaining: 5, DistanceRemaining: 90000, Interval: distanceIv},
		}
		got, ok := s.SelectMostUrgent(items)
		require.True(t, ok)
		assert.Equal(t, CategoryTires, got.Category)
	})

	t.Run("distance normalized by fifty", func(t *testing.T) {
		items := []Item{
			{Category: CategoryOil, Status: StatusAttention, DaysRemaining: 20, DistanceRemaining: 5000, Interval: distanceIv},
			{Category: CategoryTires, Status: StatusAttention, DaysRemaining: 60, DistanceRemaining: 900, Interval: distanceIv},
		}
		got, _ := s.SelectMostUrgent(items)
		// 900/50 = 18 < 20
		assert.Equal(t, CategoryTires, got.Category)
	})

	t.Run("ties keep input order", func(t *testing.T) {
		items := []Item{
			{Category: CategoryBrakes, Status: StatusNormal, DaysRemaining: 100, DistanceRemaining: 9000, Interval: distanceIv},
			{Category: CategoryOil, Status: StatusNormal, DaysRemaining: 100, DistanceRemaining: 9000, Interval: distanceIv},
		}
		got, _ := s.SelectMostUrgent(items)
		assert.Equal(t, CategoryBrakes, got.Category)
	})

	t.Run("zero distance interval ranks by distance too", func(t *testing.T) {
		items := []Item{
			{Category: CategoryOil, Status: StatusCritical, DaysRemaining: 3, DistanceRemaining: 9000, Interval: distanceIv},
			{Category: CategoryBattery, Status: StatusCritical, DaysRemaining: 100, Interval: Interval{Months: 36}},
		}
		got, _ := s.SelectMostUrgent(items)
		// min(100, 0/50) = 0 < 3
		assert.Equal(t, CategoryBattery, got.Category)

		cfg := DefaultConfig()
		cfg.TimeOnlyByDate = true
		got, _ = NewScheduler(cfg).SelectMostUrgent(items)
		assert.Equal(t, CategoryOil, got.Category)
	})

	t.Run("does not reorder the input", func(t *testing.T) {
		items := []Item{
			{Category: CategoryOil, Status: StatusNormal, DaysRemaining: 100, Interval: distanceIv, DistanceRemaining: 9000},
			{Category: CategoryTires, Status: StatusCritical, DaysRemaining: 1, Interval: distanceIv, DistanceRemaining: 9000},
		}
		s.SelectMostUrgent(items)
		assert.Equal(t, CategoryOil, items[0].Category)
	})
}

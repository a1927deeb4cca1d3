package maintenance

import "fmt"

// Health is the overall condition reported for a vehicle.
type Health string

const (
	HealthExcellent Health = "excellent"
	HealthGood      Health = "good"
	HealthAttention Health = "attention"
	HealthCritical  Health = "critical"
)

// ParseHealth accepts one of the four health values.
func ParseHealth(s string) (Health, bool) {
	switch h := Health(s); h {
	case HealthExcellent, HealthGood, HealthAttention, HealthCritical:
		return h, true
	default:
		return "", false
	}
}

// OverallHealth derives a health value by counting item statuses: any
// critical item makes the vehicle critical, more than one attention item
// makes it attention, and no attention item at all makes it excellent.
func OverallHealth(items []Item) Health {
	var critical, attention int
	for _, it := range items {
		switch it.Status {
		case StatusCritical:
			critical++
		case StatusAttention:
			attention++
		}
	}
	switch {
	case critical > 0:
		return HealthCritical
	case attention > 1:
		return HealthAttention
	case attention == 0:
		return HealthExcellent
	default:
		return HealthGood
	}
}

// AlertMessage renders the user-facing message for an item.
func AlertMessage(it Item) string {
	switch it.Status {
	case StatusCritical:
		return fmt.Sprintf("URGENT: %s needs immediate attention! Only %d days or %d km left.",
			it.Name, it.DaysRemaining, it.DistanceRemaining)
	case StatusAttention:
		return fmt.Sprintf("ATTENTION: %s is approaching its service deadline. %d days or %d km left.",
			it.Name, it.DaysRemaining, it.DistanceRemaining)
	default:
		return fmt.Sprintf("%s is up to date. Next service in %d days or %d km.",
			it.Name, it.DaysRemaining, it.DistanceRemaining)
	}
}

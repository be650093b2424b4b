package hsmodels

import "time"

// Alert rule condition kinds
const (
	ConditionGreaterThan  = "greater_than"
	ConditionLessThan     = "less_than"
	ConditionBetween      = "between"
	ConditionOutsideRange = "outside_range"
)

// Alert severities
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// AlertRule is an operator-defined threshold rule. A nil DeviceID makes the
// rule organization-wide, matching every device.
type AlertRule struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	DeviceID    *string   `json:"device_id,omitempty" db:"device_id"`
	Parameter   string    `json:"parameter" db:"parameter"`
	Condition   string    `json:"condition" db:"condition"`
	Threshold1  float64   `json:"threshold_value_1" db:"threshold_value_1"`
	Threshold2  *float64  `json:"threshold_value_2,omitempty" db:"threshold_value_2"`
	Severity    string    `json:"severity" db:"severity"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Alert is one triggered alert record. Append-only from the evaluator;
// resolution happens outside this core.
type Alert struct {
	ID          string    `json:"id" db:"id"`
	DeviceID    string    `json:"device_id" db:"device_id"`
	RuleID      *string   `json:"rule_id,omitempty" db:"rule_id"`
	Severity    string    `json:"severity" db:"severity"`
	Message     string    `json:"message" db:"message"`
	TriggeredAt time.Time `json:"triggered_at" db:"triggered_at"`
	Resolved    bool      `json:"resolved" db:"resolved"`
}

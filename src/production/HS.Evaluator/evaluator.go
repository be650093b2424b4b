// Package evaluator matches validated readings against alert rules.
package evaluator

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
)

// Evaluate checks a reading against every rule and returns one alert per
// triggered rule. Rules whose parameter is absent from the reading are
// skipped. Every trigger produces an alert; duplicate suppression is not
// this layer's job.
func Evaluate(reading hsmodels.SensorReading, rules []hsmodels.AlertRule, at time.Time) []hsmodels.Alert {
	var alerts []hsmodels.Alert
	for i := range rules {
		rule := rules[i]
		value, ok := reading.Value(rule.Parameter)
		if !ok {
			continue
		}
		if !conditionMet(rule, value) {
			continue
		}

		ruleID := rule.ID
		alerts = append(alerts, hsmodels.Alert{
			ID:          uuid.New().String(),
			DeviceID:    reading.DeviceID,
			RuleID:      &ruleID,
			Severity:    rule.Severity,
			Message:     fmt.Sprintf("%s: %s value %v triggered alert", rule.Name, rule.Parameter, value),
			TriggeredAt: at,
			Resolved:    false,
		})
	}
	return alerts
}

func conditionMet(rule hsmodels.AlertRule, value float64) bool {
	switch rule.Condition {
	case hsmodels.ConditionGreaterThan:
		return value > rule.Threshold1
	case hsmodels.ConditionLessThan:
		return value < rule.Threshold1
	case hsmodels.ConditionBetween:
		if rule.Threshold2 == nil {
			return false
		}
		return value >= rule.Threshold1 && value <= *rule.Threshold2
	case hsmodels.ConditionOutsideRange:
		if rule.Threshold2 == nil {
			return false
		}
		return value < rule.Threshold1 || value > *rule.Threshold2
	default:
		return false
	}
}

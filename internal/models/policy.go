// ABOUTME: Policy is one row of the append-only, time-versioned policy ledger
// ABOUTME: The active row for a key is the one whose EffectiveTo is nil
package models

import "time"

// Well-known policy keys
const (
	PolicyBusinessHours       = "business_hours"
	PolicyPhone               = "phone"
	PolicyAddress             = "address"
	PolicyEmergencyDisclaimer = "emergency_disclaimer"
	PolicyCallbackSLA         = "callback_sla"
)

// Policy is a versioned key/value fact
type Policy struct {
	ID            int64      `json:"id"`
	Key           string     `json:"policy_key"`
	Value         string     `json:"policy_value"`
	EffectiveFrom time.Time  `json:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty"`
	UpdatedBy     string     `json:"updated_by"`
}

// Active reports whether this row is the current value for its key
func (p Policy) Active() bool {
	return p.EffectiveTo == nil
}

// DefaultPolicies are seeded on first start when no active value exists
var DefaultPolicies = map[string]string{
	PolicyBusinessHours:       "Monday-Friday 9:00 AM-4:00 PM ET. Appointments available by request outside these hours.",
	PolicyPhone:               "(864) 770-8822",
	PolicyAddress:             "25 Woods Lake Rd Suite 401, Greenville, SC 29607",
	PolicyEmergencyDisclaimer: "I can't provide emergency medical advice. If this is urgent or severe, call 911 or seek immediate care.",
	PolicyCallbackSLA:         "Front desk follows up on callbacks during business hours.",
}

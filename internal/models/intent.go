// ABOUTME: Intent labels the classifier may produce
// ABOUTME: The label set is closed; anything outside it is rejected by the classifier wrappers
package models

// Intent is one label of the fixed intent set
type Intent string

const (
	IntentHoursLocationContact Intent = "hours_location_contact"
	IntentServicesInfo         Intent = "services_info"
	IntentInsuranceFinancing   Intent = "insurance_financing"
	IntentAppointmentRequest   Intent = "appointment_request"
	IntentDeviceSupport        Intent = "device_support_general"
	IntentBillingAdmin         Intent = "billing_admin"
	IntentClinicalRisk         Intent = "clinical_risk_or_emergency"
	IntentOtherUnknown         Intent = "other_unknown"
)

// AllIntents lists the label set in a stable order (used in classifier prompts)
var AllIntents = []Intent{
	IntentHoursLocationContact,
	IntentServicesInfo,
	IntentInsuranceFinancing,
	IntentAppointmentRequest,
	IntentDeviceSupport,
	IntentBillingAdmin,
	IntentClinicalRisk,
	IntentOtherUnknown,
}

// Valid reports whether the intent belongs to the label set
func (i Intent) Valid() bool {
	for _, known := range AllIntents {
		if i == known {
			return true
		}
	}
	return false
}

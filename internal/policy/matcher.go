// ABOUTME: Deterministic answers for hours, phone and address questions
// ABOUTME: Also decides whether the clinic is open right now in its own timezone
package policy

import (
	"regexp"
	"strings"
	"time"

	"github.com/harper/frontdesk/internal/models"
)

// Order matters: hours phrasing wins over contact phrasing, which wins over address phrasing.
var (
	hoursPattern   = regexp.MustCompile(`(business\s*hours|hours|open|closed)`)
	contactPattern = regexp.MustCompile(`(phone|call|number|contact)`)
	addressPattern = regexp.MustCompile(`(address|location|where are you|directions)`)
)

// DeterministicResponse returns a canned answer built from policy values, or false when the
// query needs the full pipeline.
func DeterministicResponse(query string, policies map[string]string) (string, bool) {
	q := strings.ToLower(strings.TrimSpace(query))

	switch {
	case hoursPattern.MatchString(q):
		return strings.TrimSpace("Our business hours are " + policies[models.PolicyBusinessHours] +
			" If you prefer, I can collect your details for a callback."), true
	case contactPattern.MatchString(q):
		return "You can reach us at " + policies[models.PolicyPhone] + ".", true
	case addressPattern.MatchString(q):
		return "Our office is located at " + policies[models.PolicyAddress] + ".", true
	}
	return "", false
}

// Hours is the clinic's fixed weekly schedule
type Hours struct {
	Location  *time.Location
	OpenHour  int
	CloseHour int
}

// DefaultHours is Monday through Friday, 9:00 to 16:00 local time
func DefaultHours(loc *time.Location) Hours {
	if loc == nil {
		loc = time.UTC
	}
	return Hours{Location: loc, OpenHour: 9, CloseHour: 16}
}

// IsOpenNow reports whether now falls on a weekday inside [OpenHour, CloseHour) local time
func (h Hours) IsOpenNow(now time.Time) bool {
	local := now.In(h.Location)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return local.Hour() >= h.OpenHour && local.Hour() < h.CloseHour
}

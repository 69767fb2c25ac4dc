package logic

import "strings"

// Jurisdiction selects which set of legal limits applies.
type Jurisdiction uint8

const (
	// Standard is the EU driving-hours regime.
	Standard Jurisdiction = iota
	// Domestic is the domestic driving-hours regime.
	Domestic
)

// String returns the settings value for the jurisdiction.
func (j Jurisdiction) String() string {
	switch j {
	case Standard:
		return "standard"
	case Domestic:
		return "domestic"
	default:
		return "unknown"
	}
}

// ParseJurisdiction accepts "standard" or "domestic", case-insensitively.
func ParseJurisdiction(s string) (Jurisdiction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standard":
		return Standard, true
	case "domestic":
		return Domestic, true
	}
	return Standard, false
}

// Rules are the thresholds for one jurisdiction, in seconds.
type Rules struct {
	DriveLimit int
	RestLimit  int
	// RestPreThreshold is the short-break credit; 0 means no partial credit.
	RestPreThreshold int
}

// Alert offsets before the drive limit.
const (
	driveWarnOneHour     = 3600
	driveWarnThirtyMins  = 1800
	driveWarnFinalSecond = 1
)

var rulesByJurisdiction = map[Jurisdiction]Rules{
	Standard: {DriveLimit: 16200, RestLimit: 2700, RestPreThreshold: 900},
	Domestic: {DriveLimit: 19800, RestLimit: 1800},
}

// RulesFor returns the thresholds for j. Unknown values fall back to Standard.
func RulesFor(j Jurisdiction) Rules {
	if r, ok := rulesByJurisdiction[j]; ok {
		return r
	}
	return rulesByJurisdiction[Standard]
}

// DriveWarnings returns the elapsed seconds at which drive alerts fire.
func (r Rules) DriveWarnings() []int {
	return []int{
		r.DriveLimit - driveWarnOneHour,
		r.DriveLimit - driveWarnThirtyMins,
		r.DriveLimit - driveWarnFinalSecond,
	}
}

// RestWarnings returns the elapsed seconds at which rest alerts fire.
func (r Rules) RestWarnings() []int {
	if r.RestPreThreshold > 0 {
		return []int{r.RestPreThreshold - 1, r.RestLimit - 1}
	}
	return []int{r.RestLimit - 1}
}

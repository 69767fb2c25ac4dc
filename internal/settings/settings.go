// Package settings parses remote settings updates into engine settings.
package settings

import (
	"strings"

	"github.com/sweeney/drive-timer/internal/logic"
)

// Parse converts a key/value pair received from the host link into a
// logic.Setting. Unknown keys and unparseable values report false.
func Parse(key, value string) (logic.Setting, bool) {
	switch logic.SettingKey(strings.TrimSpace(key)) {
	case logic.SettingJurisdiction:
		j, ok := logic.ParseJurisdiction(value)
		if !ok {
			return logic.Setting{}, false
		}
		return logic.Setting{Key: logic.SettingJurisdiction, Jurisdiction: j}, true
	case logic.SettingCompact:
		on, ok := parseSwitch(value)
		if !ok {
			return logic.Setting{}, false
		}
		return logic.Setting{Key: logic.SettingCompact, Compact: on}, true
	}
	return logic.Setting{}, false
}

func parseSwitch(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "1":
		return true, true
	case "off", "false", "0":
		return false, true
	}
	return false, false
}

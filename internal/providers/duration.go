package providers

import (
	"regexp"
	"strconv"
)

var isoDurationRe = regexp.MustCompile(`^P(?:(\d+)D)?T?(?:(\d+)H)?(?:(\d+)M)?$`)

// parseISODuration converts GDS durations such as "PT2H35M" or "P1DT3H" to
// minutes. Unparseable input yields 0.
func parseISODuration(s string) int {
	matches := isoDurationRe.FindStringSubmatch(s)
	if matches == nil {
		return 0
	}

	var days, hours, mins int
	if matches[1] != "" {
		days, _ = strconv.Atoi(matches[1])
	}
	if matches[2] != "" {
		hours, _ = strconv.Atoi(matches[2])
	}
	if matches[3] != "" {
		mins, _ = strconv.Atoi(matches[3])
	}

	return days*24*60 + hours*60 + mins
}

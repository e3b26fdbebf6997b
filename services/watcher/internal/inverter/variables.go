package inverter

import (
	"math"
	"strconv"
	"strings"
)

const (
	nowPowerVariable    = "var webdata_now_p"
	totalEnergyVariable = "var webdata_total_e"
)

// SplitLines breaks a status page into lines, tolerating CRLF endings.
func SplitLines(page string) []string {
	if page == "" {
		return nil
	}
	lines := strings.Split(page, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// ExtractVariable returns the value assigned on the first line starting with
// name. The value is the second-to-last double-quoted segment of that line.
func ExtractVariable(lines []string, name string) (string, bool) {
	for _, line := range lines {
		if !strings.HasPrefix(line, name) {
			continue
		}
		parts := strings.Split(line, `"`)
		if len(parts) < 3 {
			return "", false
		}
		return parts[len(parts)-2], true
	}
	return "", false
}

// Variables collects every `var <name> = "..."` assignment on the page.
// Later duplicates do not override the first occurrence.
func Variables(page string) map[string]string {
	out := make(map[string]string)
	for _, line := range SplitLines(page) {
		rest, ok := strings.CutPrefix(line, "var ")
		if !ok {
			continue
		}
		name, _, found := strings.Cut(rest, "=")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			continue
		}
		if _, seen := out[name]; seen {
			continue
		}
		if value, ok := ExtractVariable([]string{line}, "var "); ok {
			out[name] = value
		}
	}
	return out
}

// ParseWatt extracts the current power output in watts.
func ParseWatt(page string) (int, bool) {
	if strings.TrimSpace(page) == "" {
		return 0, false
	}
	raw, ok := ExtractVariable(SplitLines(page), nowPowerVariable)
	if !ok {
		return 0, false
	}
	watt, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || watt < 0 {
		return 0, false
	}
	return watt, true
}

// ParseTotalKWh extracts the cumulative energy counter in kWh.
func ParseTotalKWh(page string) (float64, bool) {
	if strings.TrimSpace(page) == "" {
		return 0, false
	}
	raw, ok := ExtractVariable(SplitLines(page), totalEnergyVariable)
	if !ok {
		return 0, false
	}
	kwh, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(kwh) || math.IsInf(kwh, 0) {
		return 0, false
	}
	return kwh, true
}

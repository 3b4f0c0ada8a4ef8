// Package normalizer maps free-form product spec labels and values onto the
// canonical filter vocabulary used by the storefront facets.
package normalizer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Facet is the canonical form of one spec entry.
type Facet struct {
	Key          string
	Label        string
	Value        string // cleaned value, the vocabulary used by search queries
	DisplayValue string // original trimmed value
}

type cleaner func(value string) string

type rule struct {
	key   string
	label string
	match func(label string) bool
	clean cleaner
}

// rules are evaluated in order and the first match wins. "brand" must come
// before "gpu" so that "GPU Brand" falls through to gpu_brand.
var rules = []rule{
	{key: "brand", label: "Brand", match: func(l string) bool {
		return strings.Contains(l, "brand") && !strings.Contains(l, "gpu")
	}, clean: trimmed},
	{key: "ram", label: "RAM", match: containsAny("ram"), clean: leadingNumber},
	{key: "screen_size", label: "Screen Size", match: containsAny("screen", "display"), clean: leadingNumber},
	{key: "processor", label: "Processor", match: containsAny("processor", "cpu"), clean: trimmed},
	{key: "chip", label: "Chip", match: containsAny("chip"), clean: trimmed},
	{key: "gpu_brand", label: "GPU Brand", match: containsAny("gpu", "graphics"), clean: trimmed},
	{key: "drive_size", label: "Drive Size", match: containsAny("drive", "storage", "ssd"), clean: storageGB},
	{key: "camera", label: "Camera", match: containsAny("camera"), clean: leadingNumber},
	{key: "battery", label: "Battery", match: containsAny("battery"), clean: leadingNumber},
	{key: "operating_system", label: "Operating System", match: containsAny("os", "operating"), clean: trimmed},
}

// Normalize maps a raw label/value pair to a Facet. The boolean is false when
// the value is empty or no rule matches the label.
func Normalize(label, value string) (Facet, bool) {
	l := strings.ToLower(strings.TrimSpace(label))
	v := strings.TrimSpace(value)
	if v == "" || l == "" {
		return Facet{}, false
	}

	for _, r := range rules {
		if !r.match(l) {
			continue
		}
		return Facet{
			Key:          r.key,
			Label:        r.label,
			Value:        r.clean(v),
			DisplayValue: v,
		}, true
	}
	return Facet{}, false
}

// KnownKeys returns the canonical keys in rule priority order.
func KnownKeys() []string {
	keys := make([]string, len(rules))
	for i, r := range rules {
		keys[i] = r.key
	}
	return keys
}

// DefaultOrder is the display priority assigned to a key created by sync.
// Keys outside the rule table sort last.
func DefaultOrder(key string) int {
	for i, r := range rules {
		if r.key == key {
			return (i + 1) * 10
		}
	}
	return 1000
}

func containsAny(words ...string) func(string) bool {
	return func(l string) bool {
		for _, w := range words {
			if strings.Contains(l, w) {
				return true
			}
		}
		return false
	}
}

var (
	numberPattern  = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	storagePattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(tb|gb)`)
)

func trimmed(v string) string { return v }

func leadingNumber(v string) string {
	m := numberPattern.FindString(v)
	if m == "" {
		return v
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
	if err != nil {
		return v
	}
	return FormatNumber(f)
}

// storageGB normalizes capacities to gigabytes, 1TB = 1024GB.
func storageGB(v string) string {
	m := storagePattern.FindStringSubmatch(v)
	if m == nil {
		return leadingNumber(v)
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return v
	}
	if strings.EqualFold(m[2], "tb") {
		f *= 1024
	}
	return FormatNumber(f)
}

// FormatNumber renders f without trailing zeros ("16", "15.6").
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseNumber reports the numeric value of an already cleaned value.
func ParseNumber(v string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

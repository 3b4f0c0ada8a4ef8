package normalizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Pair is one raw {label, value} leaf taken from a product's spec data.
type Pair struct {
	Label string
	Value string
}

// Skip records a spec entry that could not be read.
type Skip struct {
	Path   string
	Reason string
}

type specCategory struct {
	Category string          `json:"category"`
	Items    json.RawMessage `json:"items"`
}

// Flatten turns the flat `specs` list and the nested `specs_detail` tree into
// one ordered sequence of leaf pairs. Malformed entries are reported as skips
// and never abort the walk.
func Flatten(specs, specsDetail []byte) ([]Pair, []Skip) {
	var (
		pairs []Pair
		skips []Skip
	)

	flat, skip := decodeArray(specs, "specs")
	if skip != nil {
		skips = append(skips, *skip)
	}
	for i, raw := range flat {
		p, skip := decodePair(raw, fmt.Sprintf("specs[%d]", i))
		if skip != nil {
			skips = append(skips, *skip)
			continue
		}
		pairs = append(pairs, p)
	}

	cats, skip := decodeArray(specsDetail, "specs_detail")
	if skip != nil {
		skips = append(skips, *skip)
	}
	for i, raw := range cats {
		path := fmt.Sprintf("specs_detail[%d]", i)
		var cat specCategory
		if err := json.Unmarshal(raw, &cat); err != nil {
			skips = append(skips, Skip{Path: path, Reason: "category is not an object"})
			continue
		}
		items, skip := decodeArray(cat.Items, path+".items")
		if skip != nil {
			skips = append(skips, *skip)
			continue
		}
		for j, item := range items {
			p, skip := decodePair(item, fmt.Sprintf("%s.items[%d]", path, j))
			if skip != nil {
				skips = append(skips, *skip)
				continue
			}
			pairs = append(pairs, p)
		}
	}

	return pairs, skips
}

// decodeArray treats absent and null as empty.
func decodeArray(raw []byte, path string) ([]json.RawMessage, *Skip) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var out []json.RawMessage
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, &Skip{Path: path, Reason: "not an array"}
	}
	return out, nil
}

func decodePair(raw json.RawMessage, path string) (Pair, *Skip) {
	var entry map[string]any
	if err := json.Unmarshal(raw, &entry); err != nil || entry == nil {
		return Pair{}, &Skip{Path: path, Reason: "entry is not an object"}
	}
	label, ok := entry["label"].(string)
	if !ok || label == "" {
		return Pair{}, &Skip{Path: path, Reason: "missing label"}
	}
	value, ok := stringify(entry["value"])
	if !ok {
		return Pair{}, &Skip{Path: path, Reason: "value is not a scalar"}
	}
	return Pair{Label: label, Value: value}, nil
}

func stringify(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", true
	case string:
		return val, true
	case float64:
		return FormatNumber(val), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}

package jsonquery

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

const (
	maxSampleLen    = 40
	maxOutlineDepth = 6
)

// Outline derives a compact table of contents for a JSON document: one
// line per path with its type and a truncated sample value. Array
// elements are described once, through the # path segment.
func Outline(doc gjson.Result) string {
	var lines []string
	walk(doc, "", 0, &lines)
	return strings.Join(lines, "\n")
}

func walk(v gjson.Result, path string, depth int, lines *[]string) {
	if depth > maxOutlineDepth {
		return
	}

	switch {
	case v.IsObject():
		v.ForEach(func(key, val gjson.Result) bool {
			childPath := key.String()
			if path != "" {
				childPath = path + "." + key.String()
			}
			*lines = append(*lines, fmt.Sprintf("%s: %s", childPath, describe(val)))
			if val.IsObject() || val.IsArray() {
				walk(val, childPath, depth+1, lines)
			}
			return true
		})
	case v.IsArray():
		arr := v.Array()
		if len(arr) == 0 {
			return
		}
		childPath := "#"
		if path != "" {
			childPath = path + ".#"
		}
		walk(arr[0], childPath, depth+1, lines)
	}
}

func describe(v gjson.Result) string {
	switch {
	case v.IsObject():
		return "object"
	case v.IsArray():
		return fmt.Sprintf("array (%d items)", len(v.Array()))
	case v.Type == gjson.String:
		return "string, e.g. " + sample(v.Raw)
	case v.Type == gjson.Number:
		return "number, e.g. " + v.Raw
	case v.Type == gjson.True || v.Type == gjson.False:
		return "bool"
	default:
		return "null"
	}
}

func sample(raw string) string {
	if len(raw) <= maxSampleLen {
		return raw
	}
	// Back up to a rune boundary so the cut never splits a multi-byte
	// character.
	cut := maxSampleLen
	for cut > 0 && !utf8.RuneStart(raw[cut]) {
		cut--
	}
	return raw[:cut] + `..."`
}

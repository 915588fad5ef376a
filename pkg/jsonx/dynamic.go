package jsonx

import json "github.com/goccy/go-json"

// ToDynamicJSON round-trips val through JSON into a map[string]any.
// It is used where an SDK wants loosely typed JSON, like function
// parameter schemas for chat completion requests.
func ToDynamicJSON(val any) (map[string]any, error) {
	b, err := json.Marshal(val)
	if err != nil {
		return nil, err
	}
	result := make(map[string]any)
	if err = json.Unmarshal(b, &result); err != nil {
		return nil, err
	}
	return result, nil
}

package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

var listKeys = []string{"items", "products", "categories", "orders", "history", "results"}

// rawList decodes a bare JSON array or an object holding the array under one
// of listKeys, with an optional total.
type rawList[T any] struct {
	items []T
	total int
}

func (l *rawList[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		l.items = []T{}
		return nil
	}
	if len(b) > 0 && b[0] == '[' {
		return json.Unmarshal(b, &l.items)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	if t, ok := obj["total"]; ok {
		_ = json.Unmarshal(t, &l.total)
	}
	for _, k := range listKeys {
		if v, ok := obj[k]; ok {
			if err := json.Unmarshal(v, &l.items); err != nil {
				return err
			}
			if l.items == nil {
				l.items = []T{}
			}
			return nil
		}
	}
	return fmt.Errorf("expected a list, got object without %v", listKeys)
}

package bus

import (
	"encoding/json"
	"fmt"
)

// Decode converts an event payload into T. In-process emitters pass T or *T directly;
// payloads that crossed a JSON transport arrive as generic maps and are re-decoded.
func Decode[T any](data any) (T, error) {
	var out T
	switch v := data.(type) {
	case nil:
		return out, nil
	case T:
		return v, nil
	case *T:
		if v != nil {
			return *v, nil
		}
		return out, nil
	case json.RawMessage:
		if err := json.Unmarshal(v, &out); err != nil {
			return out, fmt.Errorf("decode payload: %w", err)
		}
		return out, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return out, fmt.Errorf("encode payload: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode payload: %w", err)
	}
	return out, nil
}

package timeseries

import (
	"encoding/json"
	"time"
)

// MarshalJSON flattens the row into one object with a "date" field and one
// integer field per stack key, the shape stacked-area frontends consume
// directly.
func (r Row) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Values)+1)

	flat["date"] = r.Week.UTC().Format(time.RFC3339)

	for key, value := range r.Values {
		flat[key] = value
	}

	return json.Marshal(flat)
}

// UnmarshalJSON restores a row from its flattened form.
func (r *Row) UnmarshalJSON(data []byte) error {
	var flat map[string]any

	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	r.Values = map[string]int{}

	for key, value := range flat {
		if key == "date" {
			raw, ok := value.(string)
			if !ok {
				continue
			}

			week, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return err
			}

			r.Week = week

			continue
		}

		if count, ok := value.(float64); ok {
			r.Values[key] = int(count)
		}
	}

	return nil
}

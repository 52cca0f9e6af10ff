package model

import "encoding/json"

// Categories is the category value of a post. The PostStore stores either
// a single string or a sequence of strings depending on which editor wrote
// the record; both shapes normalize to a slice here, once, at the JSON
// boundary, so downstream filtering is always a membership test.
type Categories []string

func (c *Categories) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*c = nil
		} else {
			*c = Categories{single}
		}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*c = Categories(many)
	return nil
}

// MarshalJSON writes a bare string when the post has exactly one category,
// matching what the store holds for records created by this client.
func (c Categories) MarshalJSON() ([]byte, error) {
	switch len(c) {
	case 0:
		return []byte("null"), nil
	case 1:
		return json.Marshal(c[0])
	default:
		return json.Marshal([]string(c))
	}
}

func (c Categories) Contains(category string) bool {
	for _, v := range c {
		if v == category {
			return true
		}
	}
	return false
}

// Primary returns the category shown on cards and badges.
func (c Categories) Primary() string {
	if len(c) == 0 {
		return ""
	}
	return c[0]
}

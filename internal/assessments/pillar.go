package assessments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// PillarID identifies a pillar. The UI sends numbers; strings are accepted
// too. The original form is kept so ids round-trip unchanged.
type PillarID struct {
	key     string
	numeric bool
}

// NumericPillar returns the id for pillar n.
func NumericPillar(n int) PillarID {
	return PillarID{key: strconv.Itoa(n), numeric: true}
}

// PillarKey returns a string-form id.
func PillarKey(s string) PillarID {
	return PillarID{key: s}
}

// Key is the object key the id maps to in scores, reflections and name maps.
func (p PillarID) Key() string { return p.key }

func (p PillarID) String() string { return p.key }

// UnmarshalJSON accepts a JSON number or string.
func (p *PillarID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PillarID{key: s}
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("pillar id must be a number or string, got %s", data)
	}
	*p = PillarID{key: strconv.FormatFloat(f, 'f', -1, 64), numeric: true}
	return nil
}

// MarshalJSON writes numeric ids as numbers and the rest as strings.
func (p PillarID) MarshalJSON() ([]byte, error) {
	if p.numeric {
		return []byte(p.key), nil
	}
	return json.Marshal(p.key)
}

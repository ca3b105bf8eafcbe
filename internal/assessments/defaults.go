package assessments

import (
	"fmt"
	"strings"
)

var defaultPillarNames = []string{"physical", "cognitive", "emotional", "environment", "engagement", "purpose"}

// DefaultPillarNames returns the six-pillar name map keyed 1..6.
func DefaultPillarNames() Object[string] {
	var out Object[string]
	for i, name := range defaultPillarNames {
		out.Set(fmt.Sprint(i+1), name)
	}
	return out
}

// ParsePillarNames parses "1=physical,2=cognitive" into a name map. An empty
// string yields DefaultPillarNames.
func ParsePillarNames(raw string) (Object[string], error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultPillarNames(), nil
	}
	var out Object[string]
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, name, ok := strings.Cut(pair, "=")
		key, name = strings.TrimSpace(key), strings.TrimSpace(name)
		if !ok || key == "" || name == "" {
			return Object[string]{}, fmt.Errorf("invalid pillar name entry %q", pair)
		}
		out.Set(key, name)
	}
	if out.Len() == 0 {
		return DefaultPillarNames(), nil
	}
	return out, nil
}

package gql

import (
	"sort"
	"strings"
)

// InputMarker is the case-insensitive token that makes a schema name an input
// type. It also selects the body argument of a mutation at invocation time.
const InputMarker = "dto"

// IsInputName reports whether name carries the input marker.
func IsInputName(name string) bool {
	return strings.Contains(strings.ToLower(name), InputMarker)
}

// Classify splits declared schema names into input and output names. Both
// results are de-duplicated and sorted. A marked name is an input even if it
// only ever appears in responses.
func Classify(names []string) (inputs, outputs []string) {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		if IsInputName(n) {
			inputs = append(inputs, n)
		} else {
			outputs = append(outputs, n)
		}
	}
	sort.Strings(inputs)
	sort.Strings(outputs)
	return inputs, outputs
}

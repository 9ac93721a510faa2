package store

import "fmt"

// DriftKind classifies a wire-format change between two extractions.
type DriftKind int

const (
	// DriftChanged means the variant still exists but encodes differently.
	DriftChanged DriftKind = iota
	// DriftRemoved means the variant no longer exists.
	DriftRemoved
)

// String returns the drift kind as a string.
func (k DriftKind) String() string {
	switch k {
	case DriftChanged:
		return "changed"
	case DriftRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k DriftKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind written by MarshalText.
func (k *DriftKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "changed":
		*k = DriftChanged
	case "removed":
		*k = DriftRemoved
	default:
		return fmt.Errorf("unknown drift kind %q", text)
	}
	return nil
}

// Drift is one variant whose wire discriminant is no longer what clients
// built against the previous extraction expect.
type Drift struct {
	Kind           DriftKind `json:"kind"`
	InstructionSet string    `json:"instruction_set"`
	Name           string    `json:"name"`
	Before         string    `json:"before"`
	After          string    `json:"after,omitempty"` // empty for DriftRemoved
}

func (d Drift) String() string {
	if d.Kind == DriftRemoved {
		return fmt.Sprintf("%s::%s removed (was %s)", d.InstructionSet, d.Name, d.Before)
	}
	return fmt.Sprintf("%s::%s discriminant changed %s -> %s", d.InstructionSet, d.Name, d.Before, d.After)
}

// CompareVariants reports the variants of prev that are missing from cur or
// whose discriminant bytes differ. New variants are not drift. Results follow
// the order of prev.
func CompareVariants(prev, cur []VariantRecord) []Drift {
	type key struct{ set, name string }
	current := make(map[key]VariantRecord, len(cur))
	for _, r := range cur {
		current[key{r.InstructionSet, r.Name}] = r
	}

	drifts := []Drift{}
	for _, p := range prev {
		c, ok := current[key{p.InstructionSet, p.Name}]
		switch {
		case !ok:
			drifts = append(drifts, Drift{
				Kind:           DriftRemoved,
				InstructionSet: p.InstructionSet,
				Name:           p.Name,
				Before:         p.Discriminant,
			})
		case c.Discriminant != p.Discriminant:
			drifts = append(drifts, Drift{
				Kind:           DriftChanged,
				InstructionSet: p.InstructionSet,
				Name:           p.Name,
				Before:         p.Discriminant,
				After:          c.Discriminant,
			})
		}
	}
	return drifts
}

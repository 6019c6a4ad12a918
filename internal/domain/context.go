package domain

import (
	"encoding/json"
	"fmt"
)

// ContextKind classifies where price sits relative to the pivot structure.
type ContextKind int

const (
	ContextFavorableEntry ContextKind = iota + 1
	ContextMidRange
	ContextBounceZone
	ContextBroken
)

var contextLabels = map[ContextKind]string{
	ContextFavorableEntry: "PUTs near resistance or CALLs near support",
	ContextMidRange:       "Mid-range",
	ContextBounceZone:     "Near bounce zones or reversal levels",
	ContextBroken:         "Broken support/resistance",
}

var contextKeys = map[ContextKind]string{
	ContextFavorableEntry: "favorable_entry",
	ContextMidRange:       "mid_range",
	ContextBounceZone:     "bounce_zone",
	ContextBroken:         "broken",
}

// ContextKinds returns every kind in display order.
func ContextKinds() []ContextKind {
	return []ContextKind{ContextFavorableEntry, ContextMidRange, ContextBounceZone, ContextBroken}
}

// Label is the user-facing text for the kind.
func (k ContextKind) Label() string {
	if l, ok := contextLabels[k]; ok {
		return l
	}
	return ""
}

// Key is a stable identifier for clients; labels may change wording.
func (k ContextKind) Key() string {
	return contextKeys[k]
}

func (k ContextKind) String() string {
	if l := k.Label(); l != "" {
		return l
	}
	return fmt.Sprintf("ContextKind(%d)", int(k))
}

// Valid reports whether k is one of the four known kinds.
func (k ContextKind) Valid() bool {
	_, ok := contextLabels[k]
	return ok
}

// ParseContextKind maps an exact label or key back to its kind.
func ParseContextKind(label string) (ContextKind, error) {
	for _, k := range ContextKinds() {
		if contextLabels[k] == label || contextKeys[k] == label {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownContext, label)
}

// MarshalJSON writes the label. The zero kind is written as "".
func (k ContextKind) MarshalJSON() ([]byte, error) {
	if k == 0 {
		return []byte(`""`), nil
	}
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownContext, int(k))
	}
	return json.Marshal(k.Label())
}

func (k *ContextKind) UnmarshalJSON(b []byte) error {
	var label string
	if err := json.Unmarshal(b, &label); err != nil {
		return err
	}
	if label == "" {
		*k = 0
		return nil
	}
	parsed, err := ParseContextKind(label)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Context sources.
const (
	ContextSourceManual = "manual"
	ContextSourceAuto   = "auto"
)

// PivotContext is the resolved context fed into the pivot zone rule.
type PivotContext struct {
	Kind        ContextKind `json:"kind"`
	Source      string      `json:"source"`
	Description string      `json:"description"`
}

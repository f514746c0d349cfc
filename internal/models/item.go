package models

import "encoding/json"

// ItemDescriptor identifies an item type plus metadata. The stored quantity
// on an order is always 1; the required quantity lives in Order.ItemAmount.
type ItemDescriptor struct {
	Type string `json:"type"`
	// Durability is present only for damageable items and must match
	// exactly when set on either side.
	Durability *int              `json:"durability,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Matches reports structural equality: same type, same durability when
// either side is damageable, identical metadata.
func (d ItemDescriptor) Matches(other ItemDescriptor) bool {
	if d.Type != other.Type {
		return false
	}
	if (d.Durability == nil) != (other.Durability == nil) {
		return false
	}
	if d.Durability != nil && *d.Durability != *other.Durability {
		return false
	}
	if len(d.Metadata) != len(other.Metadata) {
		return false
	}
	for k, v := range d.Metadata {
		if other.Metadata[k] != v {
			return false
		}
	}
	return true
}

func (d ItemDescriptor) MarshalKey() string {
	b, _ := json.Marshal(d)
	return string(b)
}

// ItemRegistry is an optional hook for custom-item plugins. When a registry
// recognizes the base item its verdict wins over structural equality.
type ItemRegistry interface {
	// Match returns (matches, recognized). recognized=false falls back to
	// ItemDescriptor.Matches.
	Match(base, candidate ItemDescriptor) (bool, bool)
}

// MatchItems applies the registry hook when configured, falling back to
// structural equality.
func MatchItems(registry ItemRegistry, base, candidate ItemDescriptor) bool {
	if registry != nil {
		if matched, ok := registry.Match(base, candidate); ok {
			return matched
		}
	}
	return base.Matches(candidate)
}

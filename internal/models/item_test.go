package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestItemDescriptorMatches(t *testing.T) {
	tests := []struct {
		name string
		a, b ItemDescriptor
		want bool
	}{
		{
			"same type",
			ItemDescriptor{Type: "iron_ingot"},
			ItemDescriptor{Type: "iron_ingot"},
			true,
		},
		{
			"different type",
			ItemDescriptor{Type: "iron_ingot"},
			ItemDescriptor{Type: "gold_ingot"},
			false,
		},
		{
			"durability must match when set",
			ItemDescriptor{Type: "iron_pickaxe", Durability: intPtr(250)},
			ItemDescriptor{Type: "iron_pickaxe", Durability: intPtr(100)},
			false,
		},
		{
			"durability equal",
			ItemDescriptor{Type: "iron_pickaxe", Durability: intPtr(250)},
			ItemDescriptor{Type: "iron_pickaxe", Durability: intPtr(250)},
			true,
		},
		{
			"durability set on one side only",
			ItemDescriptor{Type: "iron_pickaxe", Durability: intPtr(250)},
			ItemDescriptor{Type: "iron_pickaxe"},
			false,
		},
		{
			"metadata equal",
			ItemDescriptor{Type: "potion", Metadata: map[string]string{"effect": "speed"}},
			ItemDescriptor{Type: "potion", Metadata: map[string]string{"effect": "speed"}},
			true,
		},
		{
			"metadata differs",
			ItemDescriptor{Type: "potion", Metadata: map[string]string{"effect": "speed"}},
			ItemDescriptor{Type: "potion", Metadata: map[string]string{"effect": "healing"}},
			false,
		},
		{
			"metadata missing key",
			ItemDescriptor{Type: "potion", Metadata: map[string]string{"effect": "speed"}},
			ItemDescriptor{Type: "potion"},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Matches(tt.b))
			assert.Equal(t, tt.want, tt.b.Matches(tt.a))
		})
	}
}

type stubRegistry struct {
	recognized bool
	matched    bool
}

func (s stubRegistry) Match(base, candidate ItemDescriptor) (bool, bool) {
	return s.matched, s.recognized
}

func TestMatchItemsRegistryPrecedence(t *testing.T) {
	a := ItemDescriptor{Type: "custom_blade"}
	b := ItemDescriptor{Type: "custom_blade"}

	// The registry verdict wins over structural equality.
	assert.False(t, MatchItems(stubRegistry{recognized: true, matched: false}, a, b))
	assert.True(t, MatchItems(stubRegistry{recognized: true, matched: true}, a, ItemDescriptor{Type: "other"}))

	// Unrecognized items fall back to structural matching.
	assert.True(t, MatchItems(stubRegistry{recognized: false}, a, b))
	assert.True(t, MatchItems(nil, a, b))
}

// Package catalog resolves species and item reference data by numeric index.
// The statistics engine stores only indices plus denormalized name strings;
// full reference data (base stats, descriptions, sprites) lives outside this
// subsystem and is supplied by the host application.
package catalog

import "fmt"

// Catalog is the read-only reference data contract the statistics engine
// needs: human-readable names for species and item indices.
type Catalog interface {
	SpeciesName(index int) string
	ItemName(index int) string
}

// Static is a map-backed Catalog. Unknown indices resolve to a placeholder
// name so that statistics stay readable even with an incomplete catalog.
type Static struct {
	Species map[int]string
	Items   map[int]string
}

// SpeciesName returns the name for a species index.
func (s *Static) SpeciesName(index int) string {
	if name, ok := s.Species[index]; ok {
		return name
	}
	return fmt.Sprintf("Species #%d", index)
}

// ItemName returns the name for an item index.
func (s *Static) ItemName(index int) string {
	if name, ok := s.Items[index]; ok {
		return name
	}
	return fmt.Sprintf("Item #%d", index)
}

// Default returns a small catalog covering the species and items that show
// up most in practice. Hosts with full game data should supply their own.
func Default() *Static {
	return &Static{
		Species: map[int]string{
			1:   "Bulbasaur",
			4:   "Charmander",
			7:   "Squirtle",
			25:  "Pikachu",
			41:  "Zubat",
			118: "Goldeen",
			129: "Magikarp",
			183: "Marill",
			201: "Unown",
			263: "Zigzagoon",
			265: "Wurmple",
			276: "Taillow",
			278: "Wingull",
			280: "Ralts",
			286: "Breloom",
			296: "Makuhita",
			304: "Aron",
			318: "Carvanha",
			320: "Wailmer",
			333: "Swablu",
			339: "Barboach",
			359: "Absol",
			380: "Latias",
			381: "Latios",
		},
		Items: map[int]string{
			13:  "Potion",
			14:  "Antidote",
			18:  "Full Restore",
			19:  "Max Potion",
			21:  "Super Potion",
			23:  "Revive",
			44:  "Rare Candy",
			86:  "Super Repel",
			92:  "Nugget",
			103: "King's Rock",
			109: "Star Piece",
		},
	}
}

package pokemon

import "fmt"

// UnownSpeciesIndex is the species index shared by all Unown letter forms.
const UnownSpeciesIndex = 201

// Unown letter forms occupy a reserved range of the persisted species id
// space so that each letter accumulates independent statistics. The true
// species index (201) is recoverable from any id in this range.
const (
	unownFormIDBase = 20100
	unownFormIDEnd  = 20200
)

// SpeciesKey identifies a species for statistics purposes. For Unown the
// cosmetic letter form is part of the identity; for every other species
// Form is empty.
type SpeciesKey struct {
	Index int
	Form  string
}

// SpeciesKeyFromID reconstructs a SpeciesKey from a persisted species id,
// mapping ids in the Unown form range back to species 201 plus a letter.
func SpeciesKeyFromID(id int) SpeciesKey {
	if id >= unownFormIDBase && id < unownFormIDEnd {
		return SpeciesKey{Index: UnownSpeciesIndex, Form: UnownLetterByIndex(id - unownFormIDBase)}
	}
	return SpeciesKey{Index: id}
}

// DatabaseID returns the integer stored on disk for this key. Unown forms
// map to 20100+letter, everything else to the plain species index.
func (k SpeciesKey) DatabaseID() int {
	if k.Index == UnownSpeciesIndex && k.Form != "" {
		return unownFormIDBase + UnownIndexByLetter(k.Form)
	}
	return k.Index
}

// DisplayName renders the key with its form suffix, e.g. "Unown (B)".
func (k SpeciesKey) DisplayName(speciesName string) string {
	if k.Index == UnownSpeciesIndex && k.Form != "" {
		return fmt.Sprintf("%s (%s)", speciesName, k.Form)
	}
	return speciesName
}

// UnownLetterByIndex maps a letter index (0-27) to the letter glyph.
// Indices 26 and 27 are the punctuation forms.
func UnownLetterByIndex(letterIndex int) string {
	switch letterIndex {
	case 26:
		return "?"
	case 27:
		return "!"
	default:
		return string(rune('A' + letterIndex))
	}
}

// UnownIndexByLetter is the inverse of UnownLetterByIndex.
func UnownIndexByLetter(letter string) int {
	switch letter {
	case "?":
		return 26
	case "!":
		return 27
	default:
		return int(letter[0] - 'A')
	}
}

// Package testutil provides shared test fixtures for consistent, realistic test data.
package testutil

import (
	"testing"
	"time"

	"github.com/realgarit/shinytrack/internal/pokemon"
	"github.com/realgarit/shinytrack/internal/stats"
)

// EncounterBuilder provides a fluent API for building encounter inputs.
type EncounterBuilder struct {
	spec       pokemon.Spec
	forceShiny bool
	info       stats.EncounterInfo
}

// NewEncounter creates a builder with sensible defaults: a non-shiny wild
// Pikachu with middling IVs, encountered on Route 102.
func NewEncounter() *EncounterBuilder {
	mapName := "MAP_ROUTE102"
	coords := "12:7"
	encType := stats.EncounterTypeWild

	return &EncounterBuilder{
		spec: pokemon.Spec{
			Personality: 0xDEADBEEF,
			TrainerID:   40822,
			SecretID:    21781,
			Species:     25,
			IVs:         pokemon.StatsValues{HP: 12, Attack: 7, Defence: 30, Speed: 19, SpecialAttack: 3, SpecialDefence: 22},
		},
		info: stats.EncounterInfo{
			EncounterTime: time.Date(2024, 3, 17, 9, 30, 0, 0, time.UTC),
			Map:           &mapName,
			Coordinates:   &coords,
			BotMode:       "spin",
			Type:          &encType,
			OfInterest:    false,
		},
	}
}

// WithSpecies sets the species index.
func (b *EncounterBuilder) WithSpecies(index int) *EncounterBuilder {
	b.spec.Species = uint16(index)
	return b
}

// WithPersonality sets the personality value.
func (b *EncounterBuilder) WithPersonality(pv uint32) *EncounterBuilder {
	b.spec.Personality = pv
	return b
}

// WithIVs sets all six individual values to the same number, so the IV sum
// is 6*v.
func (b *EncounterBuilder) WithIVs(v int) *EncounterBuilder {
	b.spec.IVs = pokemon.StatsValues{HP: v, Attack: v, Defence: v, Speed: v, SpecialAttack: v, SpecialDefence: v}
	return b
}

// WithStatsValues sets the individual values explicitly.
func (b *EncounterBuilder) WithStatsValues(ivs pokemon.StatsValues) *EncounterBuilder {
	b.spec.IVs = ivs
	return b
}

// Shiny adjusts the secret id so the shiny value comes out as 0.
func (b *EncounterBuilder) Shiny() *EncounterBuilder {
	b.forceShiny = true
	return b
}

// WithShinyValue adjusts the secret id so the shiny value comes out exactly
// as given.
func (b *EncounterBuilder) WithShinyValue(sv uint16) *EncounterBuilder {
	b.forceShiny = false
	b.spec.SecretID = b.spec.TrainerID ^ uint16(b.spec.Personality>>16) ^ uint16(b.spec.Personality) ^ sv
	return b
}

// WithTime sets the encounter timestamp.
func (b *EncounterBuilder) WithTime(t time.Time) *EncounterBuilder {
	b.info.EncounterTime = t
	return b
}

// WithFrameCount sets the emulator frame counter reading.
func (b *EncounterBuilder) WithFrameCount(frames uint64) *EncounterBuilder {
	b.info.FrameCount = frames
	return b
}

// WithType sets the encounter type tag.
func (b *EncounterBuilder) WithType(t stats.EncounterType) *EncounterBuilder {
	b.info.Type = &t
	return b
}

// WithOutcome sets a pre-known battle outcome.
func (b *EncounterBuilder) WithOutcome(o stats.BattleOutcome) *EncounterBuilder {
	b.info.Outcome = &o
	return b
}

// OfInterest flags the encounter for individual persistence.
func (b *EncounterBuilder) OfInterest() *EncounterBuilder {
	b.info.OfInterest = true
	return b
}

// WithBotMode sets the bot mode label.
func (b *EncounterBuilder) WithBotMode(mode string) *EncounterBuilder {
	b.info.BotMode = mode
	return b
}

// Data returns just the synthesized snapshot bytes.
func (b *EncounterBuilder) Data() []byte {
	spec := b.spec
	if b.forceShiny {
		spec.SecretID = spec.TrainerID ^ uint16(spec.Personality>>16) ^ uint16(spec.Personality)
	}
	return pokemon.Compose(spec)
}

// Build returns the constructed EncounterInfo.
func (b *EncounterBuilder) Build() stats.EncounterInfo {
	info := b.info
	info.Data = b.Data()
	return info
}

// MustPokemon decodes the builder's snapshot into a Pokemon, failing the
// test on a codec error.
func (b *EncounterBuilder) MustPokemon(t testing.TB) *pokemon.Pokemon {
	t.Helper()
	p, err := pokemon.New(b.Data())
	if err != nil {
		t.Fatalf("failed to decode synthesized pokemon: %v", err)
	}
	return p
}

// UnownWithLetter returns a personality value whose derived Unown letter is
// the given index (0 = A). Only the low two bits of each byte contribute, so
// setting them directly is enough.
func UnownWithLetter(letterIndex int) uint32 {
	// The composed value takes two bits from each byte of the personality
	// value: the highest byte lands in the lowest bit pair.
	v := uint32(letterIndex)
	return (v&3)<<24 | (v>>2&3)<<16 | (v>>4&3)<<8 | (v >> 6 & 3)
}

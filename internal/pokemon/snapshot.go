// Package pokemon decodes the raw third-generation Pokémon data blocks that
// the emulator layer hands to the statistics engine. The blob is the source
// of truth for every derived field (species, IVs, shiny value); nothing is
// trusted from the caller.
package pokemon

import (
	"encoding/binary"
	"fmt"
)

const (
	boxDataLength   = 80
	partyDataLength = 100

	substructCount = 4
	substructSize  = 12
)

// Substructure identifiers in canonical order: Growth, Attacks, EVs, Misc.
const (
	substructGrowth = iota
	substructAttacks
	substructEVs
	substructMisc
)

// substructOrders[pid%24][j] is the canonical substructure stored at raw
// position j. The orders are the 24 lexicographic permutations of G,A,E,M.
var substructOrders = buildSubstructOrders()

func buildSubstructOrders() [24][4]int {
	var orders [24][4]int
	i := 0
	for a := 0; a < 4; a++ {
		for b := 0; b < 4; b++ {
			for c := 0; c < 4; c++ {
				for d := 0; d < 4; d++ {
					if a == b || a == c || a == d || b == c || b == d || c == d {
						continue
					}
					orders[i] = [4]int{a, b, c, d}
					i++
				}
			}
		}
	}
	return orders
}

// StatsValues holds one value per battle stat. Used for IVs here, but the
// layout matches EVs and base stats as well.
type StatsValues struct {
	HP             int `json:"hp"`
	Attack         int `json:"attack"`
	Defence        int `json:"defence"`
	Speed          int `json:"speed"`
	SpecialAttack  int `json:"special_attack"`
	SpecialDefence int `json:"special_defence"`
}

// Sum returns the total of all six values.
func (s StatsValues) Sum() int {
	return s.HP + s.Attack + s.Defence + s.Speed + s.SpecialAttack + s.SpecialDefence
}

// Pokemon wraps a raw 80-byte (box) or 100-byte (party) data block and lazily
// exposes the fields derived from it. The decrypted, canonically-ordered copy
// is computed once at construction.
type Pokemon struct {
	data      []byte
	decrypted []byte
}

// New validates and decodes a raw data block. The substructure checksum is
// verified; a mismatch means the block is corrupted or was never a Pokémon.
func New(data []byte) (*Pokemon, error) {
	if len(data) != boxDataLength && len(data) != partyDataLength {
		return nil, fmt.Errorf("pokemon data must be %d or %d bytes, got %d", boxDataLength, partyDataLength, len(data))
	}

	p := &Pokemon{data: append([]byte(nil), data...)}
	p.decrypted = p.decrypt()

	stored := binary.LittleEndian.Uint16(data[28:30])
	if computed := substructChecksum(p.decrypted[8:56]); computed != stored {
		return nil, fmt.Errorf("pokemon data checksum mismatch: stored %#04x, computed %#04x", stored, computed)
	}

	return p, nil
}

// decrypt XORs the four substructures with the encryption key and puts them
// in canonical order. Layout of the result:
//
//	 0..8   personality value and original trainer id (copied verbatim)
//	 8..56  substructures in Growth, Attacks, EVs, Misc order
//	56..80  nickname, language, OT name, markings (raw bytes 8..32)
//	80..100 party-only battle stats, if present
func (p *Pokemon) decrypt() []byte {
	pid := binary.LittleEndian.Uint32(p.data[0:4])
	otID := binary.LittleEndian.Uint32(p.data[4:8])
	key := pid ^ otID

	order := substructOrders[pid%24]
	pos := [substructCount]int{}
	for j, id := range order {
		pos[id] = j
	}

	out := make([]byte, len(p.data))
	copy(out[0:8], p.data[0:8])
	copy(out[56:80], p.data[8:32])
	if len(p.data) == partyDataLength {
		copy(out[80:100], p.data[80:100])
	}

	for i := 0; i < substructCount; i++ {
		src := 32 + pos[i]*substructSize
		dst := 8 + i*substructSize
		for j := 0; j < substructSize; j += 4 {
			v := binary.LittleEndian.Uint32(p.data[src+j : src+j+4])
			binary.LittleEndian.PutUint32(out[dst+j:dst+j+4], v^key)
		}
	}

	return out
}

func substructChecksum(substructs []byte) uint16 {
	var sum uint16
	for i := 0; i < len(substructs); i += 2 {
		sum += binary.LittleEndian.Uint16(substructs[i : i+2])
	}
	return sum
}

// Data returns a copy of the raw data block for persistence.
func (p *Pokemon) Data() []byte {
	return append([]byte(nil), p.data...)
}

// PersonalityValue returns the 32-bit personality value.
func (p *Pokemon) PersonalityValue() uint32 {
	return binary.LittleEndian.Uint32(p.data[0:4])
}

// TrainerID returns the visible id of the original trainer.
func (p *Pokemon) TrainerID() uint16 {
	return uint16(binary.LittleEndian.Uint32(p.data[4:8]) & 0xFFFF)
}

// SecretID returns the hidden id of the original trainer.
func (p *Pokemon) SecretID() uint16 {
	return uint16(binary.LittleEndian.Uint32(p.data[4:8]) >> 16)
}

// SpeciesIndex returns the species index from the growth substructure.
func (p *Pokemon) SpeciesIndex() int {
	return int(binary.LittleEndian.Uint16(p.decrypted[8:10]))
}

// IVs unpacks the six 5-bit individual values from the misc substructure.
func (p *Pokemon) IVs() StatsValues {
	v := binary.LittleEndian.Uint32(p.decrypted[48:52])
	return StatsValues{
		HP:             int(v & 31),
		Attack:         int((v >> 5) & 31),
		Defence:        int((v >> 10) & 31),
		Speed:          int((v >> 15) & 31),
		SpecialAttack:  int((v >> 20) & 31),
		SpecialDefence: int((v >> 25) & 31),
	}
}

// IVSum returns the sum of all six IVs (0-186).
func (p *Pokemon) IVSum() int {
	return p.IVs().Sum()
}

// ShinyValue XORs the trainer ids with both halves of the personality value.
// Values below 8 mean the Pokémon is shiny.
func (p *Pokemon) ShinyValue() int {
	pid := p.PersonalityValue()
	p1 := (pid >> 16) & 0xFFFF
	p2 := pid & 0xFFFF
	return int(uint32(p.TrainerID()) ^ uint32(p.SecretID()) ^ p1 ^ p2)
}

// IsShiny reports whether the shiny value is below the shiny threshold.
func (p *Pokemon) IsShiny() bool {
	return p.ShinyValue() < 8
}

// IsAntiShiny reports whether the shiny value falls in the mirrored range at
// the top of the id space, i.e. the Pokémon missed being shiny by a flipped
// comparison. Mostly a fun curiosity that phases keep a counter for.
func (p *Pokemon) IsAntiShiny() bool {
	return p.ShinyValue() >= 65528
}

// UnownLetter derives the letter form from the personality value. Returns ""
// for any species other than Unown.
func (p *Pokemon) UnownLetter() string {
	if p.SpeciesIndex() != UnownSpeciesIndex {
		return ""
	}
	pid := p.PersonalityValue()
	letterIndex := (((pid >> 24) & 3) |
		((pid>>16)&3)<<2 |
		((pid>>8)&3)<<4 |
		(pid&3)<<6) % 28
	return UnownLetterByIndex(int(letterIndex))
}

// SpeciesKey returns the statistics identity of this Pokémon, including the
// Unown letter form where applicable.
func (p *Pokemon) SpeciesKey() SpeciesKey {
	return SpeciesKey{Index: p.SpeciesIndex(), Form: p.UnownLetter()}
}

// Spec describes a Pokémon to synthesize. Used by the legacy stats importer
// (which has to reconstruct data blocks from JSON records) and by tests.
type Spec struct {
	Personality uint32
	TrainerID   uint16
	SecretID    uint16
	Species     uint16
	IVs         StatsValues
	HeldItem    uint16
	Experience  uint32
}

// Compose builds a valid, encrypted 80-byte box data block from a Spec.
func Compose(spec Spec) []byte {
	plain := make([]byte, substructCount*substructSize)

	// Growth: species, held item, experience.
	binary.LittleEndian.PutUint16(plain[0:2], spec.Species)
	binary.LittleEndian.PutUint16(plain[2:4], spec.HeldItem)
	binary.LittleEndian.PutUint32(plain[4:8], spec.Experience)

	// Misc: packed IVs at offset 4.
	ivs := uint32(spec.IVs.HP&31) |
		uint32(spec.IVs.Attack&31)<<5 |
		uint32(spec.IVs.Defence&31)<<10 |
		uint32(spec.IVs.Speed&31)<<15 |
		uint32(spec.IVs.SpecialAttack&31)<<20 |
		uint32(spec.IVs.SpecialDefence&31)<<25
	binary.LittleEndian.PutUint32(plain[3*substructSize+4:3*substructSize+8], ivs)

	otID := uint32(spec.SecretID)<<16 | uint32(spec.TrainerID)
	key := spec.Personality ^ otID

	data := make([]byte, boxDataLength)
	binary.LittleEndian.PutUint32(data[0:4], spec.Personality)
	binary.LittleEndian.PutUint32(data[4:8], otID)
	binary.LittleEndian.PutUint16(data[28:30], substructChecksum(plain))

	order := substructOrders[spec.Personality%24]
	for j, id := range order {
		src := id * substructSize
		dst := 32 + j*substructSize
		for k := 0; k < substructSize; k += 4 {
			v := binary.LittleEndian.Uint32(plain[src+k : src+k+4])
			binary.LittleEndian.PutUint32(data[dst+k:dst+k+4], v^key)
		}
	}

	return data
}

package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/realgarit/shinytrack/internal/pokemon"
)

// Pre-database flat files, one directory per profile. Both are optional; an
// absent file simply contributes nothing.
const (
	legacyTotalsFile   = "totals.json"
	legacyShinyLogFile = "shiny_log.json"

	legacyImportKey = "legacy_import_time"
)

type legacyTotals map[string]legacySpeciesTotals

type legacySpeciesTotals struct {
	Encounters        int    `json:"encounters"`
	ShinyEncounters   int    `json:"shiny_encounters"`
	Catches           int    `json:"catches"`
	HighestIVSum      int    `json:"highest_iv_sum"`
	LowestIVSum       int    `json:"lowest_iv_sum"`
	HighestSV         int    `json:"highest_sv"`
	LowestSV          int    `json:"lowest_sv"`
	LastEncounterTime string `json:"last_encounter_time"`
}

type legacyShinyLog struct {
	ShinyLog []legacyShinyEntry `json:"shiny_log"`
}

type legacyShinyEntry struct {
	TimeEncountered float64       `json:"time_encountered"` // unix seconds
	PhaseEncounters int           `json:"phase_encounters"`
	Pokemon         legacyPokemon `json:"pokemon"`
}

type legacyPokemon struct {
	PersonalityValue uint32               `json:"pid"`
	TrainerID        uint16               `json:"tid"`
	SecretID         uint16               `json:"sid"`
	SpeciesID        uint16               `json:"species"`
	IVs              pokemon.StatsValues  `json:"ivs"`
}

// importLegacyStats replays a profile's pre-database flat files through the
// live insertion primitives so the resulting store is indistinguishable from
// one built live. Runs inside one transaction; a failure leaves the fresh
// store untouched. Only called when the store had no schema yet.
func (e *Engine) importLegacyStats(dir string) error {
	totals, err := readLegacyTotals(filepath.Join(dir, legacyTotalsFile))
	if err != nil {
		return err
	}
	shinies, err := readLegacyShinyLog(filepath.Join(dir, legacyShinyLogFile))
	if err != nil {
		return err
	}
	if totals == nil && shinies == nil {
		return nil
	}

	e.log.Info("importing legacy stats files", "dir", dir,
		"species", len(totals), "shinies", len(shinies))

	tx, err := e.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning legacy import transaction: %w", err)
	}
	defer tx.Rollback()

	// Each logged shiny becomes one closed phase terminated by a
	// reconstructed encounter. Entries are replayed oldest-first so ids
	// stay chronological.
	sort.Slice(shinies, func(i, j int) bool {
		return shinies[i].TimeEncountered < shinies[j].TimeEncountered
	})

	encounterID := int64(1)
	phaseID := int64(1)
	for _, entry := range shinies {
		when := time.Unix(int64(entry.TimeEncountered), 0).UTC()
		blob := pokemon.Compose(pokemon.Spec{
			Personality: entry.Pokemon.PersonalityValue,
			TrainerID:   entry.Pokemon.TrainerID,
			SecretID:    entry.Pokemon.SecretID,
			Species:     entry.Pokemon.SpeciesID,
			IVs:         entry.Pokemon.IVs,
		})
		mon, err := pokemon.New(blob)
		if err != nil {
			return fmt.Errorf("reconstructing legacy shiny: %w", err)
		}

		phase := NewShinyPhase(phaseID, when)
		phase.Encounters = entry.PhaseEncounters
		if err := e.store.insertShinyPhase(tx, phase); err != nil {
			return err
		}

		enc := &Encounter{
			EncounterID:   encounterID,
			ShinyPhaseID:  phaseID,
			EncounterTime: when,
			BotMode:       "legacy import",
			SpeciesName:   e.store.speciesDisplayName(mon.SpeciesKey()),
			Pokemon:       mon,
		}
		if err := e.store.insertEncounter(tx, enc); err != nil {
			return err
		}

		if err := e.store.updateShinyPhase(tx, phase); err != nil {
			return err
		}
		if err := e.store.closeShinyPhase(tx, phase, enc); err != nil {
			return err
		}

		encounterID++
		phaseID++
	}

	for idStr, t := range totals {
		var speciesID int
		if _, err := fmt.Sscanf(idStr, "%d", &speciesID); err != nil {
			return fmt.Errorf("legacy totals has non-numeric species key %q", idStr)
		}
		key := pokemon.SpeciesKeyFromID(speciesID)

		summary := &EncounterSummary{
			Species:           key,
			SpeciesName:       e.store.speciesDisplayName(key),
			TotalEncounters:   t.Encounters,
			ShinyEncounters:   t.ShinyEncounters,
			Catches:           t.Catches,
			TotalHighestIVSum: t.HighestIVSum,
			TotalLowestIVSum:  t.LowestIVSum,
			TotalHighestSV:    t.HighestSV,
			TotalLowestSV:     t.LowestSV,
			LastEncounterTime: time.Now().UTC(),
		}
		if t.LastEncounterTime != "" {
			parsed, err := parseTime(t.LastEncounterTime)
			if err != nil {
				return fmt.Errorf("legacy totals for species %d has bad timestamp: %w", speciesID, err)
			}
			summary.LastEncounterTime = parsed
		}
		if err := e.store.upsertSummary(tx, summary); err != nil {
			return err
		}
	}

	importedAt := formatTime(time.Now().UTC())
	if err := e.store.setBaseData(tx, legacyImportKey, &importedAt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return classifyWriteError(fmt.Errorf("committing legacy import: %w", err))
	}
	return nil
}

func readLegacyTotals(path string) (legacyTotals, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading legacy totals: %w", err)
	}
	var totals legacyTotals
	if err := json.Unmarshal(raw, &totals); err != nil {
		return nil, fmt.Errorf("parsing legacy totals: %w", err)
	}
	return totals, nil
}

func readLegacyShinyLog(path string) ([]legacyShinyEntry, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading legacy shiny log: %w", err)
	}
	var log legacyShinyLog
	if err := json.Unmarshal(raw, &log); err != nil {
		return nil, fmt.Errorf("parsing legacy shiny log: %w", err)
	}
	return log.ShinyLog, nil
}

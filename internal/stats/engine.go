package stats

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/realgarit/shinytrack/internal/catalog"
	"github.com/realgarit/shinytrack/internal/pokemon"
)

// EncounterInfo is the caller-supplied description of one encounter. The raw
// snapshot bytes are the source of truth; species, shininess and IVs are
// derived from them. The two policy flags (OfInterest here, LogAllEncounters
// in Options) come from caller-owned configuration and are never computed by
// the engine.
type EncounterInfo struct {
	Data                       []byte
	EncounterTime              time.Time // zero means "now"
	FrameCount                 uint64
	Map                        *string
	Coordinates                *string
	BotMode                    string
	Type                       *EncounterType
	Outcome                    *BattleOutcome // pre-known result, if the battle resolved instantly
	MatchingCustomCatchFilters *string
	OfInterest                 bool
}

// Options configures an Engine.
type Options struct {
	DBPath string

	// LegacyStatsDir is checked for pre-database flat files when the store
	// has no schema yet; if found, they are imported once.
	LegacyStatsDir string

	// LogAllEncounters persists every encounter row; when false, only
	// encounters flagged OfInterest (and shinies) are persisted. Aggregates
	// are maintained either way.
	LogAllEncounters bool

	// EncounterBufferSize bounds the rolling-rate windows; 0 means the
	// default of 100.
	EncounterBufferSize int

	Catalog catalog.Catalog
	Logger  *slog.Logger
}

// Engine owns a profile's stats store and every in-memory aggregate cache.
// All writes are serialized behind one mutex; the facade itself must only be
// mutated from one logical thread (readers from other threads go through a
// handoff queue, see internal/handoff).
type Engine struct {
	log   *slog.Logger
	db    *sql.DB
	store *store
	cat   catalog.Catalog

	logAllEncounters bool

	mu sync.Mutex

	summaries   map[int]*EncounterSummary
	pickupItems map[int]*PickupItem
	baseData    map[string]*string

	currentPhase  *ShinyPhase
	shortestPhase *ShinyPhase
	longestPhase  *ShinyPhase

	nextEncounterID  int64
	nextShinyPhaseID int64

	rates *encounterRates

	lastEncounter                   *Encounter
	lastFishingAttempt              *FishingAttempt
	lastShinySpeciesPhaseEncounters int

	listeners []func(*Encounter)
}

// Open opens (creating or migrating as needed) the stats store for a profile
// and hydrates every cache. This is the only place a full scan of the
// aggregate tables happens; everything afterwards is incremental.
func Open(opts Options) (*Engine, error) {
	if opts.EncounterBufferSize <= 0 {
		opts.EncounterBufferSize = 100
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	db, err := openDatabase(opts.DBPath)
	if err != nil {
		return nil, err
	}

	version, err := storedSchemaVersion(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	fresh := version == 0
	if err := migrateSchema(db, version); err != nil {
		db.Close()
		return nil, err
	}

	e := &Engine{
		log:              opts.Logger,
		db:               db,
		store:            &store{db: db, cat: opts.Catalog},
		cat:              opts.Catalog,
		logAllEncounters: opts.LogAllEncounters,
		rates:            newEncounterRates(opts.EncounterBufferSize),
	}

	if fresh && opts.LegacyStatsDir != "" {
		if err := e.importLegacyStats(opts.LegacyStatsDir); err != nil {
			db.Close()
			return nil, fmt.Errorf("importing legacy stats: %w", err)
		}
	}

	if err := e.hydrate(); err != nil {
		db.Close()
		return nil, err
	}
	return e, nil
}

// Close closes the underlying store.
func (e *Engine) Close() error { return e.db.Close() }

func (e *Engine) hydrate() error {
	var err error
	if e.nextEncounterID, err = e.store.nextEncounterID(e.db); err != nil {
		return err
	}
	if e.nextShinyPhaseID, err = e.store.nextShinyPhaseID(e.db); err != nil {
		return err
	}
	if e.summaries, err = e.store.loadSummaries(); err != nil {
		return err
	}
	if e.pickupItems, err = e.store.loadPickupItems(); err != nil {
		return err
	}
	if e.baseData, err = e.store.loadBaseData(); err != nil {
		return err
	}
	if e.currentPhase, err = e.store.querySingleShinyPhase("shiny_phases.end_time IS NULL", nil); err != nil {
		return err
	}
	e.shortestPhase, err = e.store.querySingleShinyPhase(
		"shiny_phases.end_time IS NOT NULL ORDER BY shiny_phases.encounters ASC", nil)
	if err != nil {
		return err
	}
	e.longestPhase, err = e.store.querySingleShinyPhase(
		"shiny_phases.end_time IS NOT NULL ORDER BY shiny_phases.encounters DESC", nil)
	return err
}

// OnEncounter registers a callback invoked after each successfully logged
// encounter. Register before the engine starts receiving encounters; the
// callback runs on the logging goroutine.
func (e *Engine) OnEncounter(fn func(*Encounter)) {
	e.listeners = append(e.listeners, fn)
}

// LogEncounter records one encounter: updates the rolling rate windows,
// lazily opens a shiny phase, assigns the next encounter id, persists the
// row (policy permitting), and folds the encounter into the summary and
// phase aggregates. A shiny encounter additionally closes the current phase.
func (e *Engine) LogEncounter(info EncounterInfo) (*Encounter, error) {
	mon, err := pokemon.New(info.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding encounter snapshot: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	when := info.EncounterTime
	if when.IsZero() {
		when = time.Now().UTC()
	}
	e.rates.Record(when, info.FrameCount)

	tx, err := e.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning encounter transaction: %w", err)
	}
	defer tx.Rollback()

	if e.currentPhase == nil {
		phase := NewShinyPhase(e.nextShinyPhaseID, when)
		if err := e.store.insertShinyPhase(tx, phase); err != nil {
			return nil, err
		}
		e.nextShinyPhaseID++
		e.currentPhase = phase
	}

	enc := &Encounter{
		EncounterID:                e.nextEncounterID,
		ShinyPhaseID:               e.currentPhase.ShinyPhaseID,
		MatchingCustomCatchFilters: info.MatchingCustomCatchFilters,
		EncounterTime:              when,
		Map:                        info.Map,
		Coordinates:                info.Coordinates,
		BotMode:                    info.BotMode,
		Type:                       info.Type,
		SpeciesName:                e.store.speciesDisplayName(mon.SpeciesKey()),
		Pokemon:                    mon,
	}

	// Shinies persist regardless of the caller's policy: the phase that
	// closes below references this row via shiny_encounter_id.
	if e.logAllEncounters || info.OfInterest || enc.IsShiny() {
		if err := e.store.insertEncounter(tx, enc); err != nil {
			return nil, err
		}
	}
	e.nextEncounterID++

	key := enc.SpeciesKey().DatabaseID()
	summary, ok := e.summaries[key]
	if !ok {
		summary = NewEncounterSummary(enc)
		e.summaries[key] = summary
	} else {
		summary.Update(enc)
	}
	if err := e.store.upsertSummary(tx, summary); err != nil {
		return nil, err
	}

	e.currentPhase.Update(enc)
	if err := e.store.updateShinyPhase(tx, e.currentPhase); err != nil {
		return nil, err
	}

	if enc.IsShiny() {
		if err := e.resetShinyPhaseLocked(tx, enc); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, classifyWriteError(fmt.Errorf("committing encounter %d: %w", enc.EncounterID, err))
	}
	e.lastEncounter = enc

	e.log.Debug("logged encounter",
		"encounter_id", enc.EncounterID,
		"species", enc.SpeciesName,
		"shiny", enc.IsShiny(),
		"sv", enc.ShinyValue())

	if info.Outcome != nil {
		if err := e.logEndOfBattleLocked(*info.Outcome, info.OfInterest); err != nil {
			return nil, err
		}
	}

	for _, fn := range e.listeners {
		fn(enc)
	}
	return enc, nil
}

// LogEndOfBattle records the outcome of the most recent encounter's battle.
// Gated on the same persistence policy as the encounter itself.
func (e *Engine) LogEndOfBattle(outcome BattleOutcome, ofInterest bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.logEndOfBattleLocked(outcome, ofInterest)
}

func (e *Engine) logEndOfBattleLocked(outcome BattleOutcome, ofInterest bool) error {
	if e.lastEncounter == nil {
		return nil
	}
	if !e.logAllEncounters && !ofInterest {
		return nil
	}

	e.lastEncounter.Outcome = &outcome

	tx, err := e.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning outcome transaction: %w", err)
	}
	defer tx.Rollback()

	if err := e.store.updateEncounterOutcome(tx, e.lastEncounter.EncounterID, outcome); err != nil {
		return err
	}
	if summary, ok := e.summaries[e.lastEncounter.SpeciesKey().DatabaseID()]; ok {
		summary.UpdateOutcome(outcome)
		if err := e.store.upsertSummary(tx, summary); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return classifyWriteError(fmt.Errorf("committing battle outcome: %w", err))
	}
	return nil
}

// ResetShinyPhase closes the currently open phase with the given terminating
// encounter. Returns ErrNoOpenPhase when no phase is open.
func (e *Engine) ResetShinyPhase(enc *Encounter) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.currentPhase == nil {
		return ErrNoOpenPhase
	}

	tx, err := e.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning phase reset transaction: %w", err)
	}
	defer tx.Rollback()

	if err := e.resetShinyPhaseLocked(tx, enc); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return classifyWriteError(fmt.Errorf("committing phase reset: %w", err))
	}
	return nil
}

// resetShinyPhaseLocked closes the open phase inside the caller's
// transaction: snapshot totals, persist, zero the summaries' phase columns
// and move the shortest/longest pointers. No new phase is opened; the next
// encounter creates one lazily.
func (e *Engine) resetShinyPhaseLocked(q dbtx, enc *Encounter) error {
	if e.currentPhase == nil {
		return ErrNoOpenPhase
	}
	phase := e.currentPhase

	phase.ShinyEncounter = enc
	endTime := enc.EncounterTime
	phase.EndTime = &endTime
	phase.UpdateSnapshot(e.summaries)

	if err := e.store.updateShinyPhase(q, phase); err != nil {
		return err
	}
	if err := e.store.closeShinyPhase(q, phase, enc); err != nil {
		return err
	}

	if summary, ok := e.summaries[enc.SpeciesKey().DatabaseID()]; ok {
		e.lastShinySpeciesPhaseEncounters = summary.PhaseEncounters
	}
	for _, summary := range e.summaries {
		summary.ResetPhase()
	}

	if e.shortestPhase == nil || phase.Encounters < e.shortestPhase.Encounters {
		e.shortestPhase = phase
	}
	if e.longestPhase == nil || phase.Encounters > e.longestPhase.Encounters {
		e.longestPhase = phase
	}

	e.log.Info("shiny phase closed",
		"shiny_phase_id", phase.ShinyPhaseID,
		"encounters", phase.Encounters,
		"species", enc.SpeciesName)

	e.currentPhase = nil
	return nil
}

// ClearCurrentShinyPhase resets all counters of the open phase to
// start-of-phase values without closing it. Corrects a false start; no-op
// when no phase is open. Summaries are untouched.
func (e *Engine) ClearCurrentShinyPhase() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.currentPhase == nil {
		return nil
	}
	e.currentPhase.Clear(time.Now().UTC())
	return e.store.updateShinyPhase(e.db, e.currentPhase)
}

// LogPickupItems increments pickup counts, one write per distinct item.
func (e *Engine) LogPickupItems(itemIndexes []int) error {
	if len(itemIndexes) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	counts := make(map[int]int)
	for _, idx := range itemIndexes {
		counts[idx]++
	}

	tx, err := e.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning pickup transaction: %w", err)
	}
	defer tx.Rollback()

	for idx, n := range counts {
		item, ok := e.pickupItems[idx]
		if !ok {
			item = &PickupItem{ItemIndex: idx, ItemName: e.cat.ItemName(idx)}
			e.pickupItems[idx] = item
		}
		item.TimesPickedUp += n
		if err := e.store.upsertPickupItem(tx, item); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return classifyWriteError(fmt.Errorf("committing pickup items: %w", err))
	}
	return nil
}

// LogFishingAttempt updates the open phase's fishing counters. Attempts that
// produced an encounter are not committed separately; the encounter that
// follows carries the phase row to the store.
func (e *Engine) LogFishingAttempt(attempt FishingAttempt) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastFishingAttempt = &attempt
	if e.currentPhase == nil {
		return nil
	}
	e.currentPhase.UpdateFishingAttempt(attempt)

	if attempt.Result == FishingResultEncounter {
		return nil
	}
	return e.store.updateShinyPhase(e.db, e.currentPhase)
}

// LogPokenavCall increments the open phase's PokéNav counter; no-op when no
// phase is open.
func (e *Engine) LogPokenavCall() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.currentPhase == nil {
		return nil
	}
	e.currentPhase.PokenavCalls++
	return e.store.updateShinyPhase(e.db, e.currentPhase)
}

// GetGlobalStats returns the read view over every cached aggregate. When no
// phase is open a fresh zero-valued phase is synthesized so consumers always
// see an open phase. Callers must treat the contained maps as read-only.
func (e *Engine) GetGlobalStats() *GlobalStats {
	current := e.currentPhase
	if current == nil {
		current = NewShinyPhase(0, time.Now().UTC())
	}
	return &GlobalStats{
		EncounterSummaries: e.summaries,
		PickupItems:        e.pickupItems,
		CurrentShinyPhase:  current,
		LongestShinyPhase:  e.longestPhase,
		ShortestShinyPhase: e.shortestPhase,
	}
}

// GetEncounterLog returns every persisted encounter, newest first.
func (e *Engine) GetEncounterLog() ([]*Encounter, error) {
	return e.store.queryEncounters("", nil, 0, 0)
}

// GetShinyLog returns every closed phase with its terminating encounter,
// newest first.
func (e *Engine) GetShinyLog() ([]*ShinyPhase, error) {
	return e.store.queryShinyPhases(
		"shiny_phases.end_time IS NOT NULL ORDER BY shiny_phases.shiny_phase_id DESC", nil, 0, 0)
}

// QueryEncounters runs a filtered, paged read over the log, newest first.
// The where clause uses the encounters table's column names; empty means no
// filter. A limit of 0 means no limit.
func (e *Engine) QueryEncounters(where string, params []any, limit, offset int) ([]*Encounter, error) {
	return e.store.queryEncounters(where, params, limit, offset)
}

// CountEncounters counts log rows matching the filter.
func (e *Engine) CountEncounters(where string, params []any) (int, error) {
	return e.store.countEncounters(where, params)
}

// HasEncounterWithPersonalityValue reports whether any persisted encounter
// carries the given personality value. Used by callers for dedup.
func (e *Engine) HasEncounterWithPersonalityValue(pv uint32) (bool, error) {
	n, err := e.store.countEncounters("personality_value = ?", []any{int64(pv)})
	return n > 0, err
}

// GetShinyPhaseByShiny returns the closed phase that was terminated by the
// given shiny Pokémon, or nil if none matches.
func (e *Engine) GetShinyPhaseByShiny(p *pokemon.Pokemon) (*ShinyPhase, error) {
	return e.store.querySingleShinyPhase(
		"encounters.personality_value = ? AND encounters.species_id = ?",
		[]any{int64(p.PersonalityValue()), p.SpeciesIndex()})
}

// EncounterRate returns the wall-clock encounters-per-hour estimate.
func (e *Engine) EncounterRate() int { return e.rates.PerHour() }

// EncounterRateAt1x returns the frame-based estimate normalized to
// unthrottled emulation speed.
func (e *Engine) EncounterRateAt1x() float64 { return e.rates.PerHourAt1x() }

// LastEncounter returns the most recently logged encounter, if any.
func (e *Engine) LastEncounter() *Encounter { return e.lastEncounter }

// LastFishingAttempt returns the most recent rod cast, if any.
func (e *Engine) LastFishingAttempt() *FishingAttempt { return e.lastFishingAttempt }

// LastShinySpeciesPhaseEncounters returns how many phase encounters the most
// recent shiny's species had accumulated when its phase closed.
func (e *Engine) LastShinySpeciesPhaseEncounters() int { return e.lastShinySpeciesPhaseEncounters }

// SetData stores an opaque key/value flag.
func (e *Engine) SetData(key string, value *string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.setBaseData(e.db, key, value); err != nil {
		return err
	}
	e.baseData[key] = value
	return nil
}

// GetData returns the stored value for key and whether it exists.
func (e *Engine) GetData(key string) (*string, bool) {
	value, ok := e.baseData[key]
	return value, ok
}

package stats

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/realgarit/shinytrack/internal/catalog"
	"github.com/realgarit/shinytrack/internal/pokemon"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx, so store operations can run
// standalone or inside a logical transaction.
type dbtx interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// openDatabase opens the profile's SQLite file with WAL mode and a short
// busy timeout. The pool is restricted to a single connection because SQLite
// is single-writer and the engine serializes all writes anyway.
func openDatabase(dbPath string) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, classifyWriteError(fmt.Errorf("connecting to database: %w", err))
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}

// store wraps the durable relations: the append-mostly encounter log plus
// the persisted aggregate rows. It does no locking itself; the engine holds
// the write lock around every call that mutates.
type store struct {
	db  *sql.DB
	cat catalog.Catalog
}

func (st *store) speciesDisplayName(key pokemon.SpeciesKey) string {
	return key.DisplayName(st.cat.SpeciesName(key.Index))
}

// nextEncounterID returns max(encounter_id)+1, or 1 for an empty log. Must
// be called under the engine's write lock so two writers cannot both claim
// the same id.
func (st *store) nextEncounterID(q dbtx) (int64, error) {
	var id int64
	err := q.QueryRow("SELECT encounter_id FROM encounters ORDER BY encounter_id DESC LIMIT 1").Scan(&id)
	if err == sql.ErrNoRows {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading max encounter id: %w", err)
	}
	return id + 1, nil
}

// nextShinyPhaseID returns max(shiny_phase_id)+1, or 1 when no phase exists.
func (st *store) nextShinyPhaseID(q dbtx) (int64, error) {
	var id int64
	err := q.QueryRow("SELECT shiny_phase_id FROM shiny_phases ORDER BY shiny_phase_id DESC LIMIT 1").Scan(&id)
	if err == sql.ErrNoRows {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading max shiny phase id: %w", err)
	}
	return id + 1, nil
}

func (st *store) insertEncounter(q dbtx, e *Encounter) error {
	var encType *string
	if e.Type != nil {
		s := string(*e.Type)
		encType = &s
	}
	_, err := q.Exec(`
		INSERT INTO encounters
			(encounter_id, species_id, personality_value, shiny_phase_id, is_shiny,
			 matching_custom_catch_filters, encounter_time, map, coordinates, bot_mode,
			 type, outcome, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.EncounterID,
		e.SpeciesID(),
		int64(e.PersonalityValue()),
		e.ShinyPhaseID,
		boolToInt(e.IsShiny()),
		e.MatchingCustomCatchFilters,
		formatTime(e.EncounterTime),
		e.Map,
		e.Coordinates,
		e.BotMode,
		encType,
		nil,
		e.Data(),
	)
	if err != nil {
		return classifyWriteError(fmt.Errorf("inserting encounter %d: %w", e.EncounterID, err))
	}
	return nil
}

func (st *store) updateEncounterOutcome(q dbtx, encounterID int64, outcome BattleOutcome) error {
	_, err := q.Exec("UPDATE encounters SET outcome = ? WHERE encounter_id = ?", int(outcome), encounterID)
	if err != nil {
		return classifyWriteError(fmt.Errorf("updating outcome of encounter %d: %w", encounterID, err))
	}
	return nil
}

func (st *store) insertShinyPhase(q dbtx, p *ShinyPhase) error {
	_, err := q.Exec(
		"INSERT INTO shiny_phases (shiny_phase_id, start_time) VALUES (?, ?)",
		p.ShinyPhaseID, formatTime(p.StartTime),
	)
	if err != nil {
		return classifyWriteError(fmt.Errorf("inserting shiny phase %d: %w", p.ShinyPhaseID, err))
	}
	return nil
}

func recordValue(r *SpeciesRecord) (value, speciesID any) {
	if r == nil {
		return nil, nil
	}
	return r.Value, r.Species.DatabaseID()
}

func (st *store) updateShinyPhase(q dbtx, p *ShinyPhase) error {
	hiIV, hiIVSpecies := recordValue(p.HighestIVSum)
	loIV, loIVSpecies := recordValue(p.LowestIVSum)
	hiSV, hiSVSpecies := recordValue(p.HighestSV)
	loSV, loSVSpecies := recordValue(p.LowestSV)
	longStreak, longStreakSpecies := recordValue(p.LongestStreak)
	curStreak, curStreakSpecies := recordValue(p.CurrentStreak)

	_, err := q.Exec(`
		UPDATE shiny_phases
		SET start_time = ?,
			encounters = ?,
			anti_shiny_encounters = ?,
			highest_iv_sum = ?, highest_iv_sum_species = ?,
			lowest_iv_sum = ?, lowest_iv_sum_species = ?,
			highest_sv = ?, highest_sv_species = ?,
			lowest_sv = ?, lowest_sv_species = ?,
			longest_streak = ?, longest_streak_species = ?,
			current_streak = ?, current_streak_species = ?,
			fishing_attempts = ?,
			successful_fishing_attempts = ?,
			longest_unsuccessful_fishing_streak = ?,
			current_unsuccessful_fishing_streak = ?,
			pokenav_calls = ?,
			snapshot_total_encounters = ?,
			snapshot_total_shiny_encounters = ?,
			snapshot_species_encounters = ?,
			snapshot_species_shiny_encounters = ?
		WHERE shiny_phase_id = ?`,
		formatTime(p.StartTime),
		p.Encounters,
		p.AntiShinyEncounters,
		hiIV, hiIVSpecies,
		loIV, loIVSpecies,
		hiSV, hiSVSpecies,
		loSV, loSVSpecies,
		longStreak, longStreakSpecies,
		curStreak, curStreakSpecies,
		p.FishingAttempts,
		p.SuccessfulFishingAttempts,
		p.LongestUnsuccessfulFishingStreak,
		p.CurrentUnsuccessfulFishingStreak,
		p.PokenavCalls,
		p.SnapshotTotalEncounters,
		p.SnapshotTotalShinyEncounters,
		p.SnapshotSpeciesEncounters,
		p.SnapshotSpeciesShinyEncounters,
		p.ShinyPhaseID,
	)
	if err != nil {
		return classifyWriteError(fmt.Errorf("updating shiny phase %d: %w", p.ShinyPhaseID, err))
	}
	return nil
}

// closeShinyPhase marks the phase ended by the given encounter and zeroes
// the phase-scoped columns of every summary row.
func (st *store) closeShinyPhase(q dbtx, p *ShinyPhase, terminator *Encounter) error {
	_, err := q.Exec(
		"UPDATE shiny_phases SET end_time = ?, shiny_encounter_id = ? WHERE shiny_phase_id = ?",
		formatTime(terminator.EncounterTime), terminator.EncounterID, p.ShinyPhaseID,
	)
	if err != nil {
		return classifyWriteError(fmt.Errorf("closing shiny phase %d: %w", p.ShinyPhaseID, err))
	}
	return st.resetSummaryPhases(q)
}

func (st *store) resetSummaryPhases(q dbtx) error {
	_, err := q.Exec(`
		UPDATE encounter_summaries
		SET phase_encounters = 0,
			phase_highest_iv_sum = NULL,
			phase_lowest_iv_sum = NULL,
			phase_highest_sv = NULL,
			phase_lowest_sv = NULL`)
	if err != nil {
		return classifyWriteError(fmt.Errorf("resetting summary phase columns: %w", err))
	}
	return nil
}

func (st *store) upsertSummary(q dbtx, s *EncounterSummary) error {
	if s.Species.Index == 0 {
		return ErrNoSpecies
	}
	_, err := q.Exec(`
		REPLACE INTO encounter_summaries
			(species_id, species_name, total_encounters, shiny_encounters, catches,
			 total_highest_iv_sum, total_lowest_iv_sum, total_highest_sv, total_lowest_sv,
			 phase_encounters, phase_highest_iv_sum, phase_lowest_iv_sum,
			 phase_highest_sv, phase_lowest_sv, last_encounter_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.DatabaseID(),
		s.SpeciesName,
		s.TotalEncounters,
		s.ShinyEncounters,
		s.Catches,
		s.TotalHighestIVSum,
		s.TotalLowestIVSum,
		s.TotalHighestSV,
		s.TotalLowestSV,
		s.PhaseEncounters,
		s.PhaseHighestIVSum,
		s.PhaseLowestIVSum,
		s.PhaseHighestSV,
		s.PhaseLowestSV,
		formatTime(s.LastEncounterTime),
	)
	if err != nil {
		return classifyWriteError(fmt.Errorf("upserting summary for species %d: %w", s.DatabaseID(), err))
	}
	return nil
}

func (st *store) upsertPickupItem(q dbtx, item *PickupItem) error {
	_, err := q.Exec(
		"REPLACE INTO pickup_items (item_id, item_name, times_picked_up) VALUES (?, ?, ?)",
		item.ItemIndex, item.ItemName, item.TimesPickedUp,
	)
	if err != nil {
		return classifyWriteError(fmt.Errorf("upserting pickup item %d: %w", item.ItemIndex, err))
	}
	return nil
}

func (st *store) setBaseData(q dbtx, key string, value *string) error {
	_, err := q.Exec("REPLACE INTO base_data (data_key, value) VALUES (?, ?)", key, value)
	if err != nil {
		return classifyWriteError(fmt.Errorf("storing base data %q: %w", key, err))
	}
	return nil
}

const encounterColumns = `
	encounter_id, species_id, personality_value, shiny_phase_id, is_shiny, is_roamer,
	matching_custom_catch_filters, encounter_time, map, coordinates, bot_mode, type, outcome, data`

// queryEncounters runs a filtered, paged read over the log, newest-first.
// A limit of 0 means no limit.
func (st *store) queryEncounters(whereClause string, params []any, limit, offset int) ([]*Encounter, error) {
	var sb strings.Builder
	sb.WriteString("SELECT")
	sb.WriteString(encounterColumns)
	sb.WriteString(" FROM encounters")
	if whereClause != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(whereClause)
	}
	sb.WriteString(" ORDER BY encounter_id DESC")
	if limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d OFFSET %d", limit, offset)
	}

	rows, err := st.db.Query(sb.String(), params...)
	if err != nil {
		return nil, fmt.Errorf("querying encounters: %w", err)
	}
	defer rows.Close()

	var encounters []*Encounter
	for rows.Next() {
		e, err := st.scanEncounter(rows)
		if err != nil {
			return nil, err
		}
		encounters = append(encounters, e)
	}
	return encounters, rows.Err()
}

func (st *store) countEncounters(whereClause string, params []any) (int, error) {
	query := "SELECT COUNT(*) FROM encounters"
	if whereClause != "" {
		query += " WHERE " + whereClause
	}
	var count int
	if err := st.db.QueryRow(query, params...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting encounters: %w", err)
	}
	return count, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (st *store) scanEncounter(row scanner) (*Encounter, error) {
	var (
		encounterID, shinyPhaseID    int64
		speciesID, pv                int64
		isShiny, isRoamer            int
		catchFilters, mapName        sql.NullString
		coordinates, botMode         sql.NullString
		encTime                      string
		encType                      sql.NullString
		outcome                      sql.NullInt64
		data                         []byte
	)
	err := row.Scan(
		&encounterID, &speciesID, &pv, &shinyPhaseID, &isShiny, &isRoamer,
		&catchFilters, &encTime, &mapName, &coordinates, &botMode, &encType, &outcome, &data,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning encounter row: %w", err)
	}

	mon, err := pokemon.New(data)
	if err != nil {
		return nil, fmt.Errorf("decoding stored pokemon data for encounter %d: %w", encounterID, err)
	}

	e := &Encounter{
		EncounterID:  encounterID,
		ShinyPhaseID: shinyPhaseID,
		BotMode:      botMode.String,
		Pokemon:      mon,
		SpeciesName:  st.speciesDisplayName(mon.SpeciesKey()),
	}
	e.EncounterTime, err = parseTime(encTime)
	if err != nil {
		return nil, fmt.Errorf("parsing encounter time of encounter %d: %w", encounterID, err)
	}
	if catchFilters.Valid {
		e.MatchingCustomCatchFilters = &catchFilters.String
	}
	if mapName.Valid {
		e.Map = &mapName.String
	}
	if coordinates.Valid {
		e.Coordinates = &coordinates.String
	}
	if encType.Valid {
		t := EncounterType(encType.String)
		e.Type = &t
	}
	if outcome.Valid {
		o := BattleOutcome(outcome.Int64)
		e.Outcome = &o
	}
	return e, nil
}

const shinyPhaseColumns = `
	shiny_phases.shiny_phase_id, shiny_phases.start_time, shiny_phases.end_time,
	shiny_phases.encounters, shiny_phases.anti_shiny_encounters,
	shiny_phases.highest_iv_sum, shiny_phases.highest_iv_sum_species,
	shiny_phases.lowest_iv_sum, shiny_phases.lowest_iv_sum_species,
	shiny_phases.highest_sv, shiny_phases.highest_sv_species,
	shiny_phases.lowest_sv, shiny_phases.lowest_sv_species,
	shiny_phases.longest_streak, shiny_phases.longest_streak_species,
	shiny_phases.current_streak, shiny_phases.current_streak_species,
	shiny_phases.fishing_attempts, shiny_phases.successful_fishing_attempts,
	shiny_phases.longest_unsuccessful_fishing_streak,
	shiny_phases.current_unsuccessful_fishing_streak,
	shiny_phases.pokenav_calls,
	shiny_phases.snapshot_total_encounters, shiny_phases.snapshot_total_shiny_encounters,
	shiny_phases.snapshot_species_encounters, shiny_phases.snapshot_species_shiny_encounters,
	encounters.encounter_id`

// queryShinyPhases reads phases (joined with their terminating encounter)
// matching the given clause. The clause may include ORDER BY.
func (st *store) queryShinyPhases(whereClause string, params []any, limit, offset int) ([]*ShinyPhase, error) {
	var sb strings.Builder
	sb.WriteString("SELECT")
	sb.WriteString(shinyPhaseColumns)
	sb.WriteString(` FROM shiny_phases
		LEFT JOIN encounters ON encounters.encounter_id = shiny_phases.shiny_encounter_id`)
	if whereClause != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(whereClause)
	}
	if limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d OFFSET %d", limit, offset)
	}

	rows, err := st.db.Query(sb.String(), params...)
	if err != nil {
		return nil, fmt.Errorf("querying shiny phases: %w", err)
	}
	defer rows.Close()

	var phases []*ShinyPhase
	var terminatorIDs []*int64
	for rows.Next() {
		p, shinyEncounterID, err := st.scanShinyPhase(rows)
		if err != nil {
			return nil, err
		}
		phases = append(phases, p)
		terminatorIDs = append(terminatorIDs, shinyEncounterID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// The pool holds a single connection; release it before resolving the
	// terminating encounters, which issue their own queries.
	rows.Close()

	for i, id := range terminatorIDs {
		if id == nil {
			continue
		}
		enc, err := st.encounterByID(*id)
		if err != nil {
			return nil, err
		}
		phases[i].ShinyEncounter = enc
	}
	return phases, nil
}

func (st *store) querySingleShinyPhase(whereClause string, params []any) (*ShinyPhase, error) {
	phases, err := st.queryShinyPhases(whereClause, params, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(phases) == 0 {
		return nil, nil
	}
	return phases[0], nil
}

func (st *store) encounterByID(id int64) (*Encounter, error) {
	encounters, err := st.queryEncounters("encounter_id = ?", []any{id}, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(encounters) == 0 {
		return nil, nil
	}
	return encounters[0], nil
}

func (st *store) scanRecord(value, speciesID sql.NullInt64) *SpeciesRecord {
	if !value.Valid || !speciesID.Valid || speciesID.Int64 == 0 {
		return nil
	}
	key := pokemon.SpeciesKeyFromID(int(speciesID.Int64))
	return &SpeciesRecord{
		Value:       int(value.Int64),
		Species:     key,
		SpeciesName: st.speciesDisplayName(key),
	}
}

func (st *store) scanShinyPhase(row scanner) (*ShinyPhase, *int64, error) {
	var (
		id                                   int64
		startTime                            string
		endTime                              sql.NullString
		encounters, antiShiny                int
		hiIV, hiIVSpecies                    sql.NullInt64
		loIV, loIVSpecies                    sql.NullInt64
		hiSV, hiSVSpecies                    sql.NullInt64
		loSV, loSVSpecies                    sql.NullInt64
		longStreak, longStreakSpecies        sql.NullInt64
		curStreak, curStreakSpecies          sql.NullInt64
		fishing, fishingOK                   int
		fishingLongStreak, fishingCurStreak  int
		pokenavCalls                         int
		snapTotal, snapShiny                 sql.NullInt64
		snapSpecies, snapSpeciesShiny        sql.NullInt64
		shinyEncounterID                     sql.NullInt64
	)
	err := row.Scan(
		&id, &startTime, &endTime,
		&encounters, &antiShiny,
		&hiIV, &hiIVSpecies, &loIV, &loIVSpecies,
		&hiSV, &hiSVSpecies, &loSV, &loSVSpecies,
		&longStreak, &longStreakSpecies, &curStreak, &curStreakSpecies,
		&fishing, &fishingOK, &fishingLongStreak, &fishingCurStreak,
		&pokenavCalls,
		&snapTotal, &snapShiny, &snapSpecies, &snapSpeciesShiny,
		&shinyEncounterID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("scanning shiny phase row: %w", err)
	}

	p := &ShinyPhase{
		ShinyPhaseID:                     id,
		Encounters:                       encounters,
		AntiShinyEncounters:              antiShiny,
		HighestIVSum:                     st.scanRecord(hiIV, hiIVSpecies),
		LowestIVSum:                      st.scanRecord(loIV, loIVSpecies),
		HighestSV:                        st.scanRecord(hiSV, hiSVSpecies),
		LowestSV:                         st.scanRecord(loSV, loSVSpecies),
		LongestStreak:                    st.scanRecord(longStreak, longStreakSpecies),
		CurrentStreak:                    st.scanRecord(curStreak, curStreakSpecies),
		FishingAttempts:                  fishing,
		SuccessfulFishingAttempts:        fishingOK,
		LongestUnsuccessfulFishingStreak: fishingLongStreak,
		CurrentUnsuccessfulFishingStreak: fishingCurStreak,
		PokenavCalls:                     pokenavCalls,
	}
	p.StartTime, err = parseTime(startTime)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing start time of phase %d: %w", id, err)
	}
	if endTime.Valid {
		t, err := parseTime(endTime.String)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing end time of phase %d: %w", id, err)
		}
		p.EndTime = &t
	}
	if snapTotal.Valid {
		p.SnapshotTotalEncounters = intPtr(int(snapTotal.Int64))
	}
	if snapShiny.Valid {
		p.SnapshotTotalShinyEncounters = intPtr(int(snapShiny.Int64))
	}
	if snapSpecies.Valid {
		p.SnapshotSpeciesEncounters = intPtr(int(snapSpecies.Int64))
	}
	if snapSpeciesShiny.Valid {
		p.SnapshotSpeciesShinyEncounters = intPtr(int(snapSpeciesShiny.Int64))
	}

	if shinyEncounterID.Valid {
		eid := shinyEncounterID.Int64
		return p, &eid, nil
	}
	return p, nil, nil
}

func (st *store) loadSummaries() (map[int]*EncounterSummary, error) {
	rows, err := st.db.Query(`
		SELECT species_id, species_name, total_encounters, shiny_encounters, catches,
			total_highest_iv_sum, total_lowest_iv_sum, total_highest_sv, total_lowest_sv,
			phase_encounters, phase_highest_iv_sum, phase_lowest_iv_sum,
			phase_highest_sv, phase_lowest_sv, last_encounter_time
		FROM encounter_summaries
		ORDER BY species_id`)
	if err != nil {
		return nil, fmt.Errorf("loading encounter summaries: %w", err)
	}
	defer rows.Close()

	summaries := make(map[int]*EncounterSummary)
	for rows.Next() {
		var (
			speciesID                          int
			speciesName                        string
			phaseHiIV, phaseLoIV               sql.NullInt64
			phaseHiSV, phaseLoSV               sql.NullInt64
			lastTime                           string
			s                                  EncounterSummary
		)
		err := rows.Scan(
			&speciesID, &speciesName, &s.TotalEncounters, &s.ShinyEncounters, &s.Catches,
			&s.TotalHighestIVSum, &s.TotalLowestIVSum, &s.TotalHighestSV, &s.TotalLowestSV,
			&s.PhaseEncounters, &phaseHiIV, &phaseLoIV, &phaseHiSV, &phaseLoSV, &lastTime,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning encounter summary row: %w", err)
		}
		s.Species = pokemon.SpeciesKeyFromID(speciesID)
		s.SpeciesName = speciesName
		if phaseHiIV.Valid {
			s.PhaseHighestIVSum = intPtr(int(phaseHiIV.Int64))
		}
		if phaseLoIV.Valid {
			s.PhaseLowestIVSum = intPtr(int(phaseLoIV.Int64))
		}
		if phaseHiSV.Valid {
			s.PhaseHighestSV = intPtr(int(phaseHiSV.Int64))
		}
		if phaseLoSV.Valid {
			s.PhaseLowestSV = intPtr(int(phaseLoSV.Int64))
		}
		s.LastEncounterTime, err = parseTime(lastTime)
		if err != nil {
			return nil, fmt.Errorf("parsing last encounter time for species %d: %w", speciesID, err)
		}
		summaries[speciesID] = &s
	}
	return summaries, rows.Err()
}

func (st *store) loadPickupItems() (map[int]*PickupItem, error) {
	rows, err := st.db.Query("SELECT item_id, item_name, times_picked_up FROM pickup_items ORDER BY item_id")
	if err != nil {
		return nil, fmt.Errorf("loading pickup items: %w", err)
	}
	defer rows.Close()

	items := make(map[int]*PickupItem)
	for rows.Next() {
		var item PickupItem
		if err := rows.Scan(&item.ItemIndex, &item.ItemName, &item.TimesPickedUp); err != nil {
			return nil, fmt.Errorf("scanning pickup item row: %w", err)
		}
		items[item.ItemIndex] = &item
	}
	return items, rows.Err()
}

func (st *store) loadBaseData() (map[string]*string, error) {
	rows, err := st.db.Query("SELECT data_key, value FROM base_data ORDER BY data_key")
	if err != nil {
		return nil, fmt.Errorf("loading base data: %w", err)
	}
	defer rows.Close()

	data := make(map[string]*string)
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning base data row: %w", err)
		}
		if value.Valid {
			data[key] = &value.String
		} else {
			data[key] = nil
		}
	}
	return data, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

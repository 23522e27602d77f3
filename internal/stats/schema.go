package stats

import (
	"database/sql"
	"fmt"
)

// CurrentSchemaVersion is the schema this build reads and writes.
const CurrentSchemaVersion = 3

// storedSchemaVersion returns the version recorded in the database, or 0 for
// a database that has no schema yet.
func storedSchemaVersion(db *sql.DB) (int, error) {
	var name string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'").Scan(&name)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("checking for schema_version table: %w", err)
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// migrateSchema brings the database from fromVersion up to
// CurrentSchemaVersion. The blocks are ordered by the version they check
// for, smallest first, so migrating from any historical version (including
// "no database") converges on the same final schema. Re-running on an
// up-to-date database is a no-op apart from rewriting the version row.
func migrateSchema(db *sql.DB, fromVersion int) error {
	if fromVersion > CurrentSchemaVersion {
		return fmt.Errorf("%w: stored version %d, supported version %d", ErrSchemaTooNew, fromVersion, CurrentSchemaVersion)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning schema migration: %w", err)
	}
	defer tx.Rollback()

	if fromVersion <= 0 {
		stmts := []string{
			`CREATE TABLE schema_version (version INT UNSIGNED)`,

			`CREATE TABLE base_data (
				data_key INT UNSIGNED PRIMARY KEY,
				value TEXT DEFAULT NULL
			)`,

			`CREATE TABLE encounter_summaries (
				species_id INT UNSIGNED PRIMARY KEY,
				species_name TEXT NOT NULL,
				total_encounters INT UNSIGNED,
				shiny_encounters INT UNSIGNED,
				catches INT UNSIGNED,
				total_highest_iv_sum INT UNSIGNED,
				total_lowest_iv_sum INT UNSIGNED,
				total_highest_sv INT UNSIGNED,
				total_lowest_sv INT UNSIGNED,
				phase_encounters INT UNSIGNED,
				phase_highest_iv_sum INT UNSIGNED DEFAULT NULL,
				phase_lowest_iv_sum INT UNSIGNED DEFAULT NULL,
				phase_highest_sv INT UNSIGNED DEFAULT NULL,
				phase_lowest_sv INT UNSIGNED DEFAULT NULL,
				last_encounter_time DATETIME
			)`,

			`CREATE TABLE shiny_phases (
				shiny_phase_id INT UNSIGNED PRIMARY KEY,
				start_time DATETIME NOT NULL,
				end_time DATETIME DEFAULT NULL,
				shiny_encounter_id INT UNSIGNED DEFAULT NULL,
				encounters INT UNSIGNED DEFAULT 0,
				highest_iv_sum INT UNSIGNED DEFAULT NULL,
				highest_iv_sum_species INT UNSIGNED DEFAULT NULL,
				lowest_iv_sum INT UNSIGNED DEFAULT NULL,
				lowest_iv_sum_species INT UNSIGNED DEFAULT NULL,
				highest_sv INT UNSIGNED DEFAULT NULL,
				highest_sv_species INT UNSIGNED DEFAULT NULL,
				lowest_sv INT UNSIGNED DEFAULT NULL,
				lowest_sv_species INT UNSIGNED DEFAULT NULL,
				longest_streak INT UNSIGNED DEFAULT 0,
				longest_streak_species INT UNSIGNED DEFAULT NULL,
				current_streak INT UNSIGNED DEFAULT 0,
				current_streak_species INT UNSIGNED DEFAULT NULL,
				fishing_attempts INT UNSIGNED DEFAULT 0,
				successful_fishing_attempts INT UNSIGNED DEFAULT 0,
				longest_unsuccessful_fishing_streak INT UNSIGNED DEFAULT 0,
				current_unsuccessful_fishing_streak INT UNSIGNED DEFAULT 0,
				snapshot_total_encounters INT UNSIGNED DEFAULT NULL,
				snapshot_total_shiny_encounters INT UNSIGNED DEFAULT NULL,
				snapshot_species_encounters INT UNSIGNED DEFAULT NULL,
				snapshot_species_shiny_encounters INT UNSIGNED DEFAULT NULL
			)`,

			`CREATE TABLE encounters (
				encounter_id INT UNSIGNED PRIMARY KEY,
				species_id INT UNSIGNED NOT NULL,
				personality_value INT UNSIGNED NOT NULL,
				shiny_phase_id INT UNSIGNED NOT NULL,
				is_shiny INT UNSIGNED DEFAULT 0,
				is_roamer INT UNSIGNED DEFAULT 0,
				matching_custom_catch_filters TEXT DEFAULT NULL,
				encounter_time DATETIME NOT NULL,
				map TEXT,
				coordinates TEXT,
				bot_mode TEXT,
				type TEXT DEFAULT NULL,
				outcome INT UNSIGNED DEFAULT NULL,
				data BLOB NOT NULL
			)`,

			`CREATE TABLE pickup_items (
				item_id INT UNSIGNED PRIMARY KEY,
				item_name TEXT NOT NULL,
				times_picked_up INT NOT NULL DEFAULT 0
			)`,
		}
		for _, stmt := range stmts {
			if _, err := tx.Exec(stmt); err != nil {
				return classifyWriteError(fmt.Errorf("creating initial schema: %w", err))
			}
		}
	}

	if fromVersion <= 1 {
		stmts := []string{
			`ALTER TABLE shiny_phases ADD pokenav_calls INT UNSIGNED DEFAULT 0`,
			`DROP TABLE base_data`,
			`CREATE TABLE base_data (
				data_key TEXT PRIMARY KEY,
				value TEXT DEFAULT NULL
			)`,
		}
		for _, stmt := range stmts {
			if _, err := tx.Exec(stmt); err != nil {
				return classifyWriteError(fmt.Errorf("migrating schema 1 to 2: %w", err))
			}
		}
	}

	if fromVersion <= 2 {
		if _, err := tx.Exec(`ALTER TABLE shiny_phases ADD anti_shiny_encounters INT UNSIGNED DEFAULT 0`); err != nil {
			return classifyWriteError(fmt.Errorf("migrating schema 2 to 3: %w", err))
		}
	}

	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return classifyWriteError(fmt.Errorf("clearing schema version: %w", err))
	}
	if _, err := tx.Exec("INSERT INTO schema_version VALUES (?)", CurrentSchemaVersion); err != nil {
		return classifyWriteError(fmt.Errorf("recording schema version: %w", err))
	}

	return tx.Commit()
}

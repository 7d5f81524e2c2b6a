// Package journal persists narration run history in SQLite.
//
// Each pipeline run is recorded with its inputs, voice, status, and outcome
// counters so the CLI can show what was produced and which cues were dropped
// or substituted. The database is a convenience record, not workflow state;
// deleting it loses only history.
package journal

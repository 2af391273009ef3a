// Package journal records one row per run in the configured database.
//
// The journal is optional. A run never fails because the journal is
// unavailable; callers log journal errors and carry on.
package journal

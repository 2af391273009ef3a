// Package status exposes the repository state over HTTP.
//
// Routes:
//
//	GET /status        entries and HEAD of the repository
//	GET /status/plan   the plan a run would apply now
//	GET /status/runs   recent runs from the journal
//
// Nothing here writes to the repository.
package status

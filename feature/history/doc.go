// Package history runs the whole pipeline for one state directory:
// fetch the catalog, select the target versions, inspect the repository,
// plan, and apply.
//
// A run holds the state directory lock from start to finish. Dry runs and
// the read-only Plan and Status calls never write to the repository.
package history

// Package history persists an audit ledger of pipeline runs in SQLite.
//
// Every `dailies run` invocation records a row when it starts and updates it
// with the final status, the project/folder/timeline it touched, the number of
// clips queued for export, and the host render job identifier. The ledger is
// write-only from the pipeline's point of view: nothing in a run consults it,
// so a missing or reset database never changes pipeline behaviour.
//
// Schema changes bump the version in schema.go; users delete the database to
// adopt the new schema.
package history

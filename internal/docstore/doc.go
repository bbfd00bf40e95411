// Package docstore persists documents and their pipeline state in SQLite.
//
// The store owns the status column and the per-stage retry bookkeeping.
// Stage processors never write rows directly; they call the status
// operations here so that every transition, retry increment, and reset
// happens atomically against the database.
package docstore

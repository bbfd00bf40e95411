// Package bus delivers document stage events to worker pools inside the
// daemon process. Producers publish after their database write commits, so a
// crash between commit and publish leaves the document for the recovery
// sweep rather than losing it.
package bus

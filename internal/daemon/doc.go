// Package daemon runs the document pipeline as a long-lived single-instance
// process.
package daemon

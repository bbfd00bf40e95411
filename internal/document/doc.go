// Package document defines the Document aggregate and its lifecycle state
// machine: the closed status enumeration, the three processing stages, and the
// per-stage retry bookkeeping carried on each document.
package document

// Package pipeline implements the three document processing stages: text
// extraction, metadata enrichment, and search indexing.
//
// Each processor claims its document with an optimistic status transition
// before doing any work, so duplicate event deliveries collapse into no-ops.
// Failures are recorded through the store's retry bookkeeping and picked up
// again by the recovery sweep.
package pipeline

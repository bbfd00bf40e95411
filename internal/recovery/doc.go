// Package recovery sweeps the document store for work the pipeline lost and
// feeds it back through the event bus.
package recovery

// Package main hosts the pdfctl CLI entrypoint and command graph.
//
// The Cobra-based command tree operates directly on the shared document
// store: ingesting PDFs, inspecting pipeline state, clearing retry backoff,
// and summarizing status counts. It centralizes configuration resolution so
// subcommands can focus on user experience instead of wiring.
package main

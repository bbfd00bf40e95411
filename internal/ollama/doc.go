// Package ollama calls a local Ollama server to derive document metadata
// (title, date, tags) from extracted text.
package ollama

// Package textutil cleans extracted PDF text for downstream processing.
package textutil

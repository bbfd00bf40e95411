// Package ingest validates uploaded PDFs and hands them to the pipeline.
package ingest

// Package search pushes enriched documents into an Elasticsearch index so
// they become findable by title, tags, and full text.
package search

// Package importer loads catalog exchange documents (JSON files of
// parts and fitments) into the catalog store. Documents are validated
// in full before anything is written, and each document is written as
// one batch.
package importer

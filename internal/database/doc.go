// Package database provides SQLite-based storage for ranking runs.
//
// RankDB keeps the history of every `pagerank` run: the full report as JSON,
// summary columns for listing, and the rank of each page so that a page can
// be followed across runs. The driver is modernc.org/sqlite, a CGO-free
// SQLite, opened with WAL journaling and a single connection.
package database

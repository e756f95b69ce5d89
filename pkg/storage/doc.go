// Package storage provides the key/value targets persisted stores are
// written to, and the serializers that turn state into text.
//
// A Storage behaves like the browser's localStorage: string keys, string
// values, a missing key is not an error.
//
// Backends:
//   - Memory: process-local map, the default target.
//   - File: one file per key under a directory.
//   - SQL: a single table in any database/sql driver (SQLite via
//     modernc.org/sqlite is registered by OpenSQLite).
//   - S3: one object per key under a bucket prefix.
package storage

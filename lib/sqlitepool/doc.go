// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides termhost's SQLite connection pool.
//
// It wraps zombiezen.com/go/sqlite's sqlitex.Pool with standard
// pragmas (WAL journal, NORMAL synchronous, a five second busy
// timeout) and a forward-only schema migration list tracked in
// PRAGMA user_version. Callers [Pool.Take] a connection, do their
// work with sqlitex.Execute, and [Pool.Put] it back. Connections are
// not safe for concurrent use.
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:       filepath.Join(root, "users.db"),
//	    Migrations: []string{schemaV1, schemaV2},
//	    Logger:     logger,
//	})
package sqlitepool

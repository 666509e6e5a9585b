// Package store provides durable storage for logmon events and the
// processed-file ledger.
//
// The store holds two tables:
//   - events: (file, component, severity, classification_key, count)
//     with UNIQUE(file, component, classification_key, severity)
//   - processed_files: (file PRIMARY KEY, dataset)
//
// # Critical Patterns
//
// Uniqueness is the only concurrency mechanism. A second insert with an
// existing identity key is rejected with *model.DuplicateKeyError and never
// merged or overwritten.
//
// Every operation is a single, fully-committed transaction. There is no
// transaction spanning a file's ingestion: the ledger row written by
// InsertProcessed is the commit point for a file.
//
// All queries are ordered deterministically and fully parameterized.
//
// # Database Configuration
//
// SQLite (default):
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - One connection: writes are serialized at the storage layer
//
// PostgreSQL is reached through the pgx database/sql driver and uses the
// same schema and statements.
package store

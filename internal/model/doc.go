// Package model provides the record types shared by every logmon package.
//
// This package contains type definitions and error kinds only. All other
// internal packages import model; model imports nothing internal.
//
// Key design constraints:
//   - EventRecord identity is (file, component, classification key, severity)
//   - ProcessedFile identity is the file alone, regardless of dataset
//   - Counts are int64 and always >= 1
//   - Identifiers are NFC-normalized at ingestion and query boundaries
package model

// Package testutil provides deterministic fakes for the external
// collaborators of ingestion and reporting: the file catalog, the event
// extractor and run ID generation.
//
// All fakes are safe for concurrent use.
package testutil

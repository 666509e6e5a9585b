// Package ingest drives ingestion of a dataset: reconcile against the
// catalog, then extract and persist each pending file.
//
// Each file moves through Pending, Extracting, Writing Events and
// Committed. The processed-file record is the commit point and is written
// only after every event of the file is persisted (or already present). A
// failure before that point leaves the file Pending; the next run retries
// it in full and the duplicate rejections of the first attempt are
// harmless.
//
// One file's failure never aborts the dataset. Only an unreachable store
// or a cancelled context stops a run, and cancellation is honored between
// files.
package ingest

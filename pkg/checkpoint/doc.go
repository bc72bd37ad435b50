// Package checkpoint persists collected follower records as they arrive.
//
// Each collection run writes a timestamped CSV file,
// raw_followers_<target>_<YYYYMMDD_HHMMSS>.csv, one row per follower. Rows are
// flushed and fsynced individually so an interrupted run leaves a readable
// file holding exactly the committed records. A JSON manifest next to the CSV
// tracks the run status (running, complete, partial, failed) and counters; it
// is replaced atomically via a temporary file and rename.
//
// Load reads a checkpoint back, dropping a trailing row cut short by a crash.
// The row codec is shared with the scored export in pkg/storage.
package checkpoint

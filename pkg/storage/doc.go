// Package storage persists scored results.
//
// Manager writes scored exports to an output directory. Each export is a CSV
// file named instagram_fake_followers_<YYYYMMDD_HHMMSS>.csv with the raw
// follower columns, the derived features, the score and the collection order,
// sorted by descending fake probability. Writes go through a temporary file
// that is synced and renamed so a crash never leaves a truncated export.
//
// LoadScored and LoadRaw read exports and raw checkpoints back so analysis can
// be replayed without collecting again.
//
// SQLiteArchive keeps every analysis in an SQLite database (modernc.org/sqlite,
// no cgo) for later listing and comparison.
//
// Usage:
//
//	manager, err := storage.NewManager("results")
//	if err != nil {
//	    return err
//	}
//	path, err := manager.ExportScored(results)
package storage

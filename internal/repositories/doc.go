// Package repositories implements SQLite persistence for the bot's two
// durable entities.
//
// Key Implementations:
//   - [UserRepository] : user profile upserts keyed by chat user id,
//     refreshing last_active on every contact
//   - [HistoryRepository] : append-only download history with the
//     "most recent N for user" query backing the /history surface
//
// Sequence numbers provide stable, human-readable ordering (e.g., user #42,
// download #15) independent of UUIDs and timestamps. The [NextSequence]
// function atomically increments per-table counters in dedicated sequence
// tables.
//
// Neither entity has a delete path; history rows are never mutated after
// insert.
package repositories

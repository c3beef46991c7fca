// Package models defines the shared value types flowing between providers, the
// search cache, the download engine, and persistence.
//
// # Track Provenance
//
// Every [Track] is tagged with a [Provenance] discriminant instead of ad hoc
// string fields: [MediaRetrievable] tracks can be fetched directly via their
// SourceRef, while [CatalogOnly] tracks must first be translated into a media
// query via [Track.Hint].
//
// # Ownership
//
// [MediaFile] is a transient handle: the download engine owns it until handed
// to the delivery layer, which calls [MediaFile.Cleanup] after the send.
//
// # Persistence contracts
//
// [HistoryStore] and [UserStore] are implemented by the repositories package;
// the bot layer depends only on these interfaces so tests can substitute
// in-memory fakes.
package models

// Package services defines the [Provider] and [MediaProvider] interfaces for
// external music catalogs and implements them for Spotify and the yt-dlp
// extractor daemon.
//
// # Provider Interface
//
// Both adapters implement a uniform search contract; only the extractor
// additionally implements [MediaProvider.Fetch] for audio retrieval.
//
// # Spotify Implementation
//
// [SpotifyService] authenticates with the client-credentials flow via
// [clientcredentials.Config]; the oauth2 transport refreshes the app token
// automatically. Results are catalog-only metadata: each track carries a
// translation hint ("<artists> - <title>") so the download engine can
// re-search it against the extractor. A service built without credentials
// reports Enabled() == false and contributes zero results.
//
// # Extractor Implementation
//
// [ExtractorService] talks to the extractor daemon, a thin HTTP wrapper
// around yt-dlp exposing /api/search (flat metadata) and /api/audio
// (mp3 stream at a fixed bitrate). Requests are paced with a [rate.Limiter]
// and carry independent per-call timeouts.
//
// Two resource limits live here, at the adapter boundary:
//   - duration: applied at search time, before results leave the adapter
//   - size: applied at transfer time, aborting the copy mid-stream
//
// # Error Handling
//
// Adapters use typed errors from the shared package:
//   - [shared.ErrProviderUnavailable] : provider disabled or misconfigured
//   - [shared.ErrFileTooLarge] : transfer exceeded the size cap
package services

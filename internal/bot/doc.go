// Package bot drives the per-conversation state machine from inbound chat
// events to delivered audio.
//
// # State machine
//
// Idle → Searching → ResultsCached → Resolving → Fetching → Delivered | Failed
//
// A new search from Idle or any terminal state restarts the machine for that
// conversation and overwrites its cached results. Cache misses on selection
// (expired TTL, replaced results, out-of-range index) terminate in Failed
// with a re-search instruction; retrieval failures surface a single
// human-readable message, never a raw internal error.
//
// # Transport boundary
//
// The [Transport] interface is the only way the dispatcher touches a chat
// network. Inbound [Event] values arrive from transport implementations
// (the webhook server, the TUI); outbound result lists carry one
// "download_<index>" button per result, whose suffix is exactly the search
// cache slot index.
//
// # Persistence policy
//
// User profiles are upserted on every contact and a history row is appended
// per delivered download. Both writes are fire-and-forget: failures are
// logged and never block or reverse a user-visible success.
package bot

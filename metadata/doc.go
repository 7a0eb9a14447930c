// Package metadata provides the in-memory side-channel store for
// conversation metadata: thinking records and session statistics that
// AG-UI frontends cannot recover from the filtered event stream.
//
// The store is keyed by thread ID and expires idle threads after a TTL.
// It implements translator.MetadataSink, so translation writes flow into
// it fire-and-forget, and the HTTP layer reads snapshots back out with
// [Store.Metadata]. Translator correctness never depends on eviction
// cadence; [Store.StartSweeper] exists purely to bound memory.
package metadata

// Package mirror maintains a local copy of the community ID-to-MD5
// dataset and answers post-ID lookups against it.
//
// The dataset is published as numbered "batch" files, each a plain-text
// sequence of "id:md5.ext" lines. Batches are append-only upstream: once
// a batch is full a new, higher-numbered one is started, and only the
// highest-numbered batch still receives records. The mirror exploits that
// by skipping batches it already holds and refetching only the newest one.
//
// Freshness is tracked at calendar-day granularity: a lookup triggers at
// most one remote sync per UTC day, recorded in a sibling state file. The
// mirror directory may be shared by multiple processes; batch writes are
// atomic renames, so a concurrent reader never observes partial content.
//
// There is no in-memory cache. Every lookup re-reads the batch files, so
// a lookup always reflects the latest on-disk state, including syncs done
// by other processes.
package mirror

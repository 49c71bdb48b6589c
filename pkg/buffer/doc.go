// Package buffer holds the bounded history rings used by the rule engine and
// the result processor.
//
// A Ring keeps at most Cap items. Appending to a full ring evicts the oldest
// entry, so after N > Cap appends it holds the newest Cap items in append order:
//
//	history, _ := buffer.NewRing[Record](100)
//	for _, r := range records {
//	    _ = history.Append(r)
//	}
//	recent := history.Last(20) // oldest first
//
// Last and Snapshot return copies.
//
// Counters (appended, evicted, peak length) are always kept. Prometheus export
// is opt-in through WithMetrics:
//
//	buffer.NewRing[Record](100, buffer.WithMetrics(registry, "engine_history"))
//
// Closing a ring releases its metric names so a replacement ring may register
// under the same name. Entries stay readable after Close.
package buffer

// Package engine orchestrates the priority admission queue. It is the
// sole mutator of queue state: Admit, Reprioritize, Complete, and Cancel
// each run as one serialized transaction that renumbers ranks, recomputes
// wait estimates for every displaced token, persists the whole shift as a
// single atomic batch, and only then notifies extensions and publishes
// queue-change events.
//
// Reads (ListQueue, GetToken, RankOf) run concurrently with each other
// and never observe a partially renumbered queue: the engine guards its
// state with a read-write lock and snapshots are taken under it.
//
// This package sits above the subsystem packages (token, queue, estimate,
// event, ext) and below the application layer, mirroring how the store
// backends sit below everything.
package engine

// Package taskgraph implements a deduplicating asynchronous task runtime: a
// content-addressed result cache layered over a cooperative two-pool
// scheduler. Identical (function, key) submissions share a single in-flight
// computation and a single completed result, reference-counted across the
// graph of dependent computations built from tasks that await other tasks'
// Futures.
package taskgraph

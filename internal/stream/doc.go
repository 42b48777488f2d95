// Package stream delivers decoded protocol events to consumers through
// bounded, category-segmented queues.
//
// Three categories exist: SysEx dumps, control changes, and notes. Each has
// a fixed capacity and overflow policy:
//
//   - SysEx: small queue, drop-oldest. The newest patch dump wins; a stale
//     one is not worth delivering.
//   - Control change: medium queue, drop-oldest, which keeps the window
//     moving and guarantees the most recent controller value survives.
//   - Note: large queue, drop-oldest, with one exception: a note off whose
//     note on already went through the queue is never dropped. Under
//     pressure the router evicts a buffered note on instead, preserving
//     on/off pairing (open notes are tracked per channel and key).
//
// Subscriptions are independent: each gets its own buffer, sees only events
// published after it was created, and detaches with Close. Reads never
// block indefinitely; Next takes a context and TryNext returns immediately.
package stream

// Package domain contains the core entities and value objects for skyship.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on transport, storage or logging concerns and contains only
// the types that flow through the ingestion pipeline.
//
// # Entities
//
//   - [Frame]: One decoded event-stream message (header + opaque body)
//   - [Commit]: One author's batch of repository operations plus its block archive
//   - [Record]: A decoded post record extracted from a commit
//   - [Post]: A record together with its author and path, as handed to sinks
//   - [Subscriber]: One "notify this destination when this author posts" row
//
// # Errors
//
// Every failure the pipeline can produce has a typed error here ([FrameError],
// [ExtractError], [DecodeError], [ReloadError], [DeliveryError],
// [DispatchError], [TransportError]) that unwraps to a sentinel, so callers
// classify failures with errors.Is and errors.As.
package domain

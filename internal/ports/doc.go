// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// Ports are the boundaries between the ingestion pipeline and the outside
// world. They say what the pipeline needs from external systems without
// saying how those needs are fulfilled.
//
// # Port Interfaces
//
//   - [StreamDialer] / [MessageStream]: the persistent event-stream connection
//   - [SubscriberStore]: source of truth for subscriptions, read on reload
//   - [Notifier]: outbound notification delivery
//   - [HandleResolver]: handle to DID resolution
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with gorilla
// websockets, SQLite, TOML files, Twilio and the console.
package ports

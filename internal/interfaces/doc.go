// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// The application uses several categories of interfaces:
//
// ## Data Access Interfaces
//
//   - syncengine.QueueStore: Durable sync queue access (internal/syncengine/stores.go)
//   - syncengine.EntityRepository: Entity storage for merge (internal/syncengine/stores.go)
//   - syncengine.CurationRepository: Curation storage for merge (internal/syncengine/stores.go)
//   - http.EntityReader / http.CurationReader: Read-only API access (internal/http/stores.go)
//
// ## External Service Interfaces
//
//   - syncengine.RemoteAPI: Remote curation service client (internal/syncengine/engine.go)
//   - connectivity.Pinger: Reachability probe target (internal/connectivity/monitor.go)
//
// ## Cross-Cutting Interfaces
//
//   - syncengine.Auditor / migration.Auditor: Audit trail writers
//   - syncengine.StatusRecorder: Durable last-sync outcome
//   - connectivity.Monitor: Online state and transition subscriptions
//   - tasks.QuickSyncer: Opportunistic post-capture sync
//
// # Adding a New Database Domain
//
// To add a new data domain:
//
//  1. Create sub-package: internal/database/<domain>/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Implement interface methods
//
//  4. Add compile-time check:
//
//     var _ SomeStore = (*Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces

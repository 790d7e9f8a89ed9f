// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations
//	├── entities/        # Captured entity CRUD operations
//	├── curations/       # Curation CRUD operations
//	├── curators/        # Curator profiles
//	├── syncqueue/       # Durable queue of pending mutations
//	├── legacy/          # Read-only access to legacy capture databases
//	├── settings/        # Application settings
//	└── audit/           # Audit event log
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	// Initialize database connection
//	db, err := database.NewDatabase("./curator.db")
//
//	// Create domain-specific repositories
//	entityRepo := entities.NewRepository(db.DB)
//	queueRepo := syncqueue.NewRepository(db.DB)
//
//	// Use repositories
//	entity, err := entityRepo.GetByEntityID("entity_abc")
//	pending, err := queueRepo.ListPending()
//
// # Transactional Writes
//
// Capture writes and their queue entries must commit atomically. The
// repositories accept an optional *gorm.DB transaction handle so callers
// can group a record write with its queue enqueue:
//
//	db.Transaction(func(tx *gorm.DB) error {
//	    if err := entityRepo.Create(tx, entity); err != nil {
//	        return err
//	    }
//	    _, err := queueRepo.Enqueue(tx, kind, action, id, payload)
//	    return err
//	})
//
// # Adding a New Domain
//
// To add a new domain:
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Implement the required interface
//  5. Add compile-time interface check: var _ SomeInterface = (*Repository)(nil)
package database

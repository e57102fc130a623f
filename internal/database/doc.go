// Package database provides the relational data access layer.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup with retry, driver selection, migrations
//	├── exec.go          # Per-statement transactions, row handling, error classification
//	├── books/           # Book CRUD and search
//	├── customers/       # Customer CRUD and search
//	├── orders/          # Order workflow: create, add line, finalize, stats
//	├── imports/         # Import workflow: create, add line
//	└── reports/         # Read-only aggregation queries
//
// # Units of Work
//
// Every mutation goes through Mutate or Exec and runs in its own transaction:
// committed when it succeeds, rolled back when it fails. Reads go through
// Read or the generic Query helper, which always closes its rows handle.
//
//	db, err := database.NewDatabase(cfg.Database)
//	booksRepo := books.NewRepository(db)
//	rows, err := database.Query[reports.BestSeller](ctx, db, "reports.best_sellers", stmt, args...)
//
// # Errors
//
// Nothing in this package panics or returns a bare driver error. Failures are
// *errs.Error values: ConnectionError when there is no live connection,
// ConstraintViolation for duplicate codes, NotFound for missing rows and
// ExecutionError for everything else.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *database.Database field
//  3. Add NewRepository(db *database.Database) constructor
//  4. Add compile-time interface check: var _ services.SomeStore = (*Repository)(nil)
package database

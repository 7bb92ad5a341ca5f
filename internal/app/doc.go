// Package app provides the Application Composition Layer for the demo apps.
//
// # Architecture Role
//
// The app package composes domain services, their stores and the background
// scheduler into one Application. It holds no business logic of its own.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Application struct, wiring and lifecycle
//	├── domain/             # Domain models (pure data structures)
//	│   ├── task/           # Task manager items and statistics
//	│   ├── npi/            # CMS-10114 NPI application form
//	│   ├── hets/           # HETS EDI enrollment form
//	│   └── civil/          # Calendar dates without a time of day
//	├── storage/            # Storage interfaces and implementations
//	│   ├── interfaces.go   # Store interfaces (TaskStore, ApplicationStore, ...)
//	│   ├── memory/         # In-memory implementation for tests and local runs
//	│   ├── postgres/       # PostgreSQL implementation over the refreshing pool
//	│   └── redis/          # Redis task store
//	├── services/           # Validation and orchestration per domain
//	├── validation/         # Struct and form validation rules
//	├── httpapi/            # HTTP routes per app
//	├── runtime/            # Process wiring: config, pool, server
//	├── system/             # Lifecycle manager and cron scheduler
//	└── metrics/            # Prometheus collectors
//
// # Dependency Direction
//
//	cmd/dataconnect/
//	      │
//	      ▼
//	internal/app/runtime
//	      │
//	      ├──► internal/app (composition) ──► services ──► storage
//	      │
//	      └──► internal/platform (pool, credentials, migrations)
//
// # Example: Adding a New Domain
//
//  1. Create domain models in internal/app/domain/<name>/
//  2. Add a storage interface to internal/app/storage/interfaces.go
//  3. Implement it in internal/app/storage/postgres/ and memory/
//  4. Create a service in internal/app/services/<name>/service.go
//  5. Wire the service in internal/app/application.go
//  6. Add routes in internal/app/httpapi/
package app

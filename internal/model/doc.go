// Package model defines the core data structures used throughout serpscan.
//
// This package contains the following main types:
//   - Record: One extracted email identity with its source query and timestamp
//   - QueryReport: The result of running a single query session to completion
//   - RunReport: The aggregate result of a whole run across all queries
//   - Outcome: The terminal classification of a query session
//
// Models live in their own package to avoid circular dependencies. Multiple
// packages (session, scheduler, report, database) need these types, so
// centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model

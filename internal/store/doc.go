// Package store executes Select statements against SQLite.
//
// A Store compiles each statement with querysql, runs it, and either
// materializes the rows as entities through a Mapping (Load) or returns
// them as column-ordered rows (Query). Load makes a Store usable as the
// row loader of the eager-loading resolver: one call is one round trip.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store

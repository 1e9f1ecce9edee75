// Package querymodel defines the normalized, clause-based query model that the
// translator consumes.
//
// A query model is produced by an external parser from a chain of query
// operators over a mapped entity type:
//
//	[host query] → [QueryModel] → [translate] → [queryir.Select]
//
// The model has a main from clause, body clauses (joins, where predicates,
// orderings), a select clause and an ordered list of result operators.
// Expressions are a small sealed tree (Expr); every expression carries its
// static ir.Type so that the translator can classify operands without
// inspecting Go types at runtime.
//
// # Sealed Interfaces
//
// Expr, BodyClause and ResultOperator are sealed with marker methods. Only
// types in this package implement them, so consumers can switch exhaustively:
//
//	switch e := expr.(type) {
//	case *Binary:
//	case *Member:
//	...
//	}
//
// # Files
//
// Decode reads a YAML rendition of a query model (see decode.go). It is used by
// the command-line tool; library callers build models directly.
package querymodel

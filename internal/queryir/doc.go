// Package queryir is the database-agnostic Select statement tree produced by
// query translation.
//
// The tree sits between the query model and a dialect renderer:
//
//	[query model] → [translate] → [queryir.Select] → [querysql (SQLite)]
//	                                              → [other renderers]
//
// SEALED INTERFACES:
//
// Node, Source and ConditionItem are sealed with marker methods. Only types
// in this package implement them, so renderers can switch exhaustively:
//
//	switch n := node.(type) {
//	case *Column:
//	    // column reference
//	case *Condition:
//	    // predicate
//	case *Select:
//	    // sub-select
//	default:
//	    // unsupported by this renderer
//	}
//
// CONDITIONS:
//
// A Select's Conditions and a ConditionCollection's Items are ordered lists.
// Every item carries the Relationship (AND or OR) that joins it to its
// predecessor; the first item's relationship is ignored. Grouping is
// expressed by nesting a ConditionCollection, never by operator precedence:
//
//	a AND (b OR c)  →  [a, Collection[b, c(OR)](AND)]
//
// IMMUTABILITY:
//
// Nodes are built bottom-up and not mutated after being handed to another
// node. Negate and WithRelationship return copies. Select is the exception:
// it is assembled in place by its builder and then treated as read-only.
//
// FIELDS:
//
// An empty Select.SourceFields means "every mapped column of the source".
// Field expansion replaces the sentinel with explicit columns before
// rendering; Validate reports selects where that has not happened.
package queryir

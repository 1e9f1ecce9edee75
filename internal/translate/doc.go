// Package translate turns a query model into a queryir.Select.
//
// Translate walks the clauses in a fixed order: main source, explicit
// joins, implicit joins for related-item member chains, where clauses,
// orderings, the select clause, then result operators in the order they
// were applied. Field expansion runs last when nothing was projected.
//
// Translation is pure: it reads the mapping through mapping.Provider, holds
// no state between calls and either returns a complete Select or an ir
// error.
package translate

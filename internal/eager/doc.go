// Package eager loads the related entities named by include paths into
// items that have already been materialized from a base Select.
//
// An include path is a dotted chain of navigation properties such as
// "Books" or "Books.Subject". The resolver first turns all paths into a
// plan (a tree of hops) so that every segment is checked against the
// mapping before any round trip is made. Each hop then costs exactly one
// RowLoader.Load call:
//
//	Authors.Include("Books.Subject")
//	  hop 1: SELECT Book.* WHERE Book.AuthorID IN (SELECT Author.ID <base>)
//	  hop 2: SELECT DISTINCT Subject.* FROM Book JOIN Subject ... <hop 1 filter>
//
// Loaded rows are stitched into their parents through mapping.Accessor:
// collection navigations always receive a (possibly empty) collection and
// item navigations receive the matching row or nil.
package eager

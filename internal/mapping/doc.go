// Package mapping describes how entity types map to tables and columns.
//
// The translator and the eager-loading resolver only see the Provider and
// Accessor interfaces. Registry implements both: Go struct types are mapped by
// reflection (Register), and entities declared in a schema file are mapped to
// map-backed Records (Define).
//
// Struct tags:
//
//	type Book struct {
//	    ID       int
//	    Title    string  `db:"title"`
//	    Author   *Author `orm:"fk=AuthorID"`
//	    Subjects []*Subject
//	    Cached   string  `orm:"-"`
//	}
//
// The primary key is the field tagged `orm:"pk"`, or the field named ID.
// A related item's foreign key defaults to <Property>ID on the owner's table;
// a related collection's foreign key defaults to <Owner>ID on the element's
// table.
package mapping

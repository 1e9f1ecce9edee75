// Package ir provides the foundational types shared by the query-translation
// packages.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps ir the leaf layer with no
// circular dependencies.
//
// It holds three things:
//   - Type, the host-language type descriptor carried on every query-model
//     expression, so the translator never inspects Go types at runtime
//   - Key, the normalization used to compare primary and foreign key values
//     read from different sources
//   - Error, the single error type for translation and include resolution,
//     categorized by ErrorCode
package ir

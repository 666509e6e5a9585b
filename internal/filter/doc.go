// Package filter provides the typed filter predicates used by the store,
// the reconciler, and the report engine.
//
// A Filter holds one optional Pattern per field. Patterns are exact or
// wildcard: a value containing '*' matches by glob comparison, where '*'
// matches zero or more characters; any other value requires equality.
// An unset field filters nothing. Matching is case-sensitive, and fields
// combine conjunctively.
//
// There are no other metacharacters. '?', '[', '%' and '_' are literal,
// in memory and in every SQL dialect the querysql package compiles to.
package filter

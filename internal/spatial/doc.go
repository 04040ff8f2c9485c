// Package spatial evaluates geometric join predicates and pairs annotation
// features with layer features through an in-memory SQL left join.
//
// PREDICATES: the predicate set is closed. Configuration naming any other
// predicate is rejected when assets are resolved, never at merge time.
//
// DETERMINISM: join results are ordered by annotation id then layer id, so
// the same inputs always produce the same pairs in the same order.
package spatial

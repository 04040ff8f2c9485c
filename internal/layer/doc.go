// Package layer materializes canonical layer content from pending deltas.
//
// Four reconciliation policies exist, one per fetch type:
//
//   - vector: full replace. The canonical file becomes exactly what the
//     queue drained, empty queue included. Never incremental.
//   - raster: promotion. Each pending file overwrites the canonical raster
//     path; when several are pending the last processed wins, but every
//     source is archived.
//   - document: publication. Each pending file is copied in under its own
//     name with a positioning metadata record beside it. Documents never
//     merge.
//   - annotation: spatial join merge. Annotation properties are folded
//     into intersecting layer features and the canonical file is rewritten
//     with the join survivors.
//
// CONSUMPTION: every policy archives what it consumed by rename, into
// processed/ for queue drains and work/ for everything else. A missing
// rename source means another pass won the race and is never an error.
package layer

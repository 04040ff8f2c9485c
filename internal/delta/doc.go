// Package delta implements the append-only delta log that feeds layer
// materialization.
//
// Every layer owns a pending directory of delta files. A delta is a GeoJSON
// FeatureCollection named {asset}_{YYYYMMDD}_{HHMMSS}.geojson, with an
// optional monotonic -NN suffix when two writes land in the same second,
// plus a small .delta.json sidecar carrying the intended action. Files are
// immutable once written; consumption moves them, it never edits them.
//
// ORDERING:
//
// Drains consume pending files in ascending filename order. The timestamp
// encoding makes lexical order chronological for files from one producer,
// so replaying a queue always yields the same sequence.
//
// CONSUMPTION COMMIT:
//
// A file counts as consumed only when its rename into the processed
// directory succeeds. The rename is the commit: there is no marker state,
// no partial consumption. When the rename source is already gone another
// drain won the race, which is a benign skip, never an error. Within one
// file a failure aborts that file (it stays pending); files archived
// earlier in the same drain stay archived. There is no cross-file
// transaction.
//
// The drain itself is single-use and strictly sequential. Concurrent
// drains of different layers are safe; concurrent drains of one layer are
// safe but split the features between consumers.
package delta

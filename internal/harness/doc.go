// Package harness provides conformance testing for atlas materialization.
//
// The harness builds a throwaway atlas under a temporary data root,
// executes a scenario's steps against the real delta queue and
// materializer, and validates assertions against the resulting tree.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	layers:
//	  - name: roads
//	    options: { vector_width: 3 }
//	assets:
//	  survey:
//	    fetch_type: vector
//	    out_layer: roads
//	steps:
//	  - op: add_delta
//	    asset: survey
//	    features:
//	      - geometry: { type: Point, coordinates: [1, 1] }
//	        properties: { name: a }
//	  - op: refresh_vector
//	    layer: roads
//	    expect_count: 1
//	assertions:
//	  - type: layer_count
//	    layer: roads
//	    count: 1
//	golden: true
//
// # Step Operations
//
// The following step operations are supported:
//
//   - add_delta: Queue an inline feature batch through the delta writer
//   - stage_file: Write a raw file into a layer's pending area
//   - refresh_vector: Full-replace refresh of a vector layer
//   - refresh_raster: Promote pending raster files
//   - refresh_document: Publish pending documents with positioning records
//   - annotate: Merge an asset's pending annotation batches
//   - materialize: Dispatch one asset through the capability registry
//
// Steps accept an optional expect_count (features written or files staged)
// and expect_error (substring the step's error must contain). A step that
// fails without expect_error aborts the run.
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - layer_count: Feature count of a layer's canonical vector file
//   - pending_count: Consumable files left in a layer's pending area
//   - processed_count: Files archived by queue drains (sidecars included)
//   - work_count: Files archived by raster, document and annotation passes
//   - feature_property: A canonical feature matching the given properties
//     carries the expected value
//   - document_meta: A published document's positioning record contains
//     the expected fields
//   - file_content: A file under the layer directory holds exactly the
//     given content
//
// # Deterministic Testing
//
// Every run uses a fixed stamp clock (batches named from 2024-01-01
// onward), sequential drain tokens and a discarded logger, so the
// resulting tree depends only on the scenario. Golden snapshots capture
// the final canonical content of every declared layer; absolute paths
// inside snapshot values are rewritten relative to the data root to keep
// them stable across runs.
//
// # Usage
//
// Load and run a scenario:
//
//	scenario, err := harness.LoadScenario("testdata/vector_replace.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
//
// Golden comparison in tests goes through RunWithGolden; directories of
// scenarios run through RunSuite, which the verify command wraps.
package harness

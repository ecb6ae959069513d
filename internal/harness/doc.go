// Package harness runs change-tracking scenarios.
//
// A scenario covers a document, applies a list of mutations through the
// tracking wrappers and asserts on the change feed those mutations produced
// and on the final graph.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: cart_checkout
//	description: "Quantity edits and tag changes report paths"
//	document: cart.json          # relative to the scenario file, or:
//	root: {items: [{qty: 1}]}    # inline, with the loader's YAML tags
//	steps:
//	  - op: set
//	    path: items.0.qty
//	    value: 3
//	  - op: call
//	    path: tags
//	    method: add
//	    args: [sale]
//	  - op: set
//	    path: items.0
//	    value: {qty: 1}
//	    error: not a tree         # the step must fail with this text
//	assertions:
//	  - type: change_emitted
//	    path: items.0.qty
//	    old: 1
//	    new: 3
//	  - type: change_count
//	    count: 2
//
// # Steps
//
//   - set, delete, define: write, remove or define the last segment of path
//     on the container at the rest of path. A key node replaces the last
//     segment for non-string keys; path then names the container itself.
//   - call: invoke method on the value at path with args.
//   - uncover: stop tracking; later steps run on the raw graph.
//
// # Assertion Types
//
//   - change_emitted: an event at path exists, optionally matching op,
//     method, old and new
//   - no_change: no event at path or beneath it
//   - change_count: exactly count events, under path when given
//   - change_order: the first events at paths occur in the listed order
//   - final_value: the graph holds expect at path after all steps
//   - round_trip: serializing and deserializing the final graph in format
//     yields an equal graph
//
// Event values compare by their display form (value.Display); final values
// compare structurally (value.Equal).
//
// # Deterministic Testing
//
// Every run uses a fresh context with a deterministic clock and counting
// subscription handles, so the same scenario produces a byte-identical
// change feed for golden comparison.
package harness

// Package loader reads documents into value graphs.
//
// Supported inputs, chosen by file extension:
//
//   - .json: plain JSON. Object keys keep document order; integer literals
//     that fit in 64 bits load as Int, every other number as Float.
//   - .yaml, .yml: YAML 1.2 with local tags for the values JSON cannot
//     express: !date, !regexp, !map, !set, !func and !undefined. Anchors and aliases
//     load as shared references.
//   - .cue: a concrete CUE value. Struct fields keep declaration order;
//     definitions, hidden and optional fields are not loaded.
//
// The loaded graph is raw: cover it with track.Cover to observe changes.
package loader

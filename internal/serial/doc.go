// Package serial snapshots a value graph into text and restores it.
//
// A graph is first lowered into a tree of nodes. Scalars stay scalars and
// arrays stay sequences; every other container becomes a tagged node
//
//	{"$t": <type>, "$d": [ ...data ]}
//
// with type one of Ref, RegExp, Date, Map, Set, Object, Array or Function.
// The first visit of a container records its path; later visits emit
// {"$t": "Ref", "$d": [<path>]}, so shared and cyclic references survive.
// Paths join keys with "."; a key's own "." and "\" are escaped with a
// backslash and an empty key is written as a lone backslash.
//
// Object and Function entries are written as [key, value] pairs sorted in
// reverse lexicographic key order. Functions store their registered name,
// never code; decoding resolves the name against a value.FuncTable.
//
// The tree is written as JSON (json-iterator) or YAML (yaml.v3).
package serial

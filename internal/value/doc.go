// Package value defines the closed set of values a covered graph can hold.
//
// Scalars (Undefined, Null, Bool, Int, Float, String, BigInt) and regular
// expressions are immutable and compared by value. Containers (Object, Array,
// Map, Set, Date, Function) are pointers and compared by identity; they are
// the only values the tracking layer wraps.
//
// Every container implements Trackable, the same Get/Set/Delete/Call surface
// that tracking wrappers expose. Code written against Trackable works on raw
// and wrapped graphs alike; only the wrapped form reports changes.
//
// This package imports nothing internal.
package value

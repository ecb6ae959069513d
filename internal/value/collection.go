package value

import (
	"fmt"
	"math"
	"slices"
)

// Entry is one key-value pair of a Map.
type Entry struct {
	Key   Value
	Value Value
}

// E is shorthand for Entry.
func E(key, v Value) Entry {
	return Entry{Key: key, Value: v}
}

// collectionKey is the hashable identity of a Map key or Set member.
// Numbers compare by numeric value with NaN equal to itself and -0 equal to
// +0. Containers compare by pointer.
type collectionKey struct {
	kind Kind
	i    int64
	f    float64
	s    string
	ref  any
}

func keyOf(v Value) collectionKey {
	switch k := Unwrap(Normalize(v)).(type) {
	case Undefined:
		return collectionKey{kind: KindUndefined}
	case Null:
		return collectionKey{kind: KindNull}
	case Bool:
		if k {
			return collectionKey{kind: KindBool, i: 1}
		}
		return collectionKey{kind: KindBool}
	case Int:
		return collectionKey{kind: KindInt, i: int64(k)}
	case Float:
		f := float64(k)
		if math.IsNaN(f) {
			return collectionKey{kind: KindFloat, s: "NaN"}
		}
		if f == math.Trunc(f) && math.Abs(f) < 1<<63 {
			return collectionKey{kind: KindInt, i: int64(f)}
		}
		return collectionKey{kind: KindFloat, f: f}
	case String:
		return collectionKey{kind: KindString, s: string(k)}
	case BigInt:
		return collectionKey{kind: KindBigInt, s: k.String()}
	default:
		return collectionKey{kind: KindOf(k), ref: k}
	}
}

// Map is an insertion-ordered keyed collection.
type Map struct {
	entries []Entry
	index   map[collectionKey]int
	props   *Object
}

func (*Map) isValue() {}

// NewMap returns a Map holding entries; later duplicates overwrite earlier ones.
func NewMap(entries ...Entry) *Map {
	m := &Map{index: make(map[collectionKey]int)}
	for _, e := range entries {
		m.Put(e.Key, e.Value)
	}
	return m
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.entries)
}

// Lookup returns the value stored under key.
func (m *Map) Lookup(key Value) (Value, bool) {
	i, ok := m.index[keyOf(key)]
	if !ok {
		return Undefined{}, false
	}
	return m.entries[i].Value, true
}

// Has reports whether key is present.
func (m *Map) Has(key Value) bool {
	_, ok := m.index[keyOf(key)]
	return ok
}

// Put stores v under key, keeping the original position of an existing key.
func (m *Map) Put(key, v Value) {
	key, v = Unwrap(Normalize(key)), Unwrap(Normalize(v))
	k := keyOf(key)
	if i, ok := m.index[k]; ok {
		m.entries[i].Value = v
		return
	}
	m.index[k] = len(m.entries)
	m.entries = append(m.entries, Entry{Key: key, Value: v})
}

// Remove deletes key and reports whether it was present.
func (m *Map) Remove(key Value) bool {
	k := keyOf(key)
	i, ok := m.index[k]
	if !ok {
		return false
	}
	m.entries = slices.Delete(m.entries, i, i+1)
	m.reindex()
	return true
}

// Clear removes every entry.
func (m *Map) Clear() {
	m.entries = nil
	m.index = make(map[collectionKey]int)
}

// Entries returns a snapshot of the entries in insertion order.
func (m *Map) Entries() []Entry {
	return slices.Clone(m.entries)
}

// Keys returns a snapshot of the keys in insertion order.
func (m *Map) Keys() []Value {
	keys := make([]Value, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.Key
	}
	return keys
}

// Values returns a snapshot of the values in insertion order.
func (m *Map) Values() []Value {
	vals := make([]Value, len(m.entries))
	for i, e := range m.entries {
		vals[i] = e.Value
	}
	return vals
}

// Props returns the bag of plain properties assigned to the map.
func (m *Map) Props() *Object {
	if m.props == nil {
		m.props = NewObject()
	}
	return m.props
}

func (m *Map) reindex() {
	clear(m.index)
	for i, e := range m.entries {
		m.index[keyOf(e.Key)] = i
	}
}

// Get implements Trackable by reading a plain property; entries are reached
// through Call("get", key).
func (m *Map) Get(key Value) (Value, error) {
	k := PropertyKey(key)
	if k == "size" {
		return Int(len(m.entries)), nil
	}
	if m.props == nil {
		return Undefined{}, nil
	}
	return m.props.GetWith(k, m)
}

// Set implements Trackable by writing a plain property.
func (m *Map) Set(key, v Value) error {
	k := PropertyKey(key)
	if k == "size" {
		return fmt.Errorf("set size: %w", ErrNotWritable)
	}
	return m.Props().SetWith(k, Unwrap(Normalize(v)), m)
}

// Delete implements Trackable by deleting a plain property.
func (m *Map) Delete(key Value) (bool, error) {
	if m.props == nil {
		return false, nil
	}
	return m.props.Remove(PropertyKey(key))
}

// Call implements Trackable for get, set, has, delete, clear, entries,
// keys, values and forEach.
func (m *Map) Call(method string, args ...Value) (Value, error) {
	switch method {
	case "get":
		v, _ := m.Lookup(arg(args, 0))
		return v, nil
	case "set":
		m.Put(arg(args, 0), arg(args, 1))
		return m, nil
	case "has":
		return Bool(m.Has(arg(args, 0))), nil
	case "delete":
		return Bool(m.Remove(arg(args, 0))), nil
	case "clear":
		m.Clear()
		return Undefined{}, nil
	case "entries":
		out := NewArray()
		for _, e := range m.entries {
			out.Push(NewArray(e.Key, e.Value))
		}
		return out, nil
	case "keys":
		return NewArray(m.Keys()...), nil
	case "values":
		return NewArray(m.Values()...), nil
	case "forEach":
		fn, ok := Unwrap(arg(args, 0)).(*Function)
		if !ok {
			return nil, fmt.Errorf("forEach: %w", ErrNotCallable)
		}
		for _, e := range m.Entries() {
			if _, err := fn.Invoke(m, e.Value, e.Key, m); err != nil {
				return nil, err
			}
		}
		return Undefined{}, nil
	}
	return callMethod(m, method, args)
}

// Set is an insertion-ordered membership collection. A member's index is
// its position in insertion order.
type Set struct {
	members []Value
	index   map[collectionKey]int
	props   *Object
}

func (*Set) isValue() {}

// NewSet returns a Set holding members; duplicates are dropped.
func NewSet(members ...Value) *Set {
	s := &Set{index: make(map[collectionKey]int)}
	for _, v := range members {
		s.Add(v)
	}
	return s
}

// Len returns the number of members.
func (s *Set) Len() int {
	return len(s.members)
}

// Has reports membership.
func (s *Set) Has(v Value) bool {
	_, ok := s.index[keyOf(v)]
	return ok
}

// IndexOf returns the insertion index of v, or -1.
func (s *Set) IndexOf(v Value) int {
	i, ok := s.index[keyOf(v)]
	if !ok {
		return -1
	}
	return i
}

// At returns the member at insertion index i, or Undefined.
func (s *Set) At(i int) Value {
	if i < 0 || i >= len(s.members) {
		return Undefined{}
	}
	return s.members[i]
}

// Add inserts v and reports whether it was new along with its index.
func (s *Set) Add(v Value) (added bool, index int) {
	v = Unwrap(Normalize(v))
	k := keyOf(v)
	if i, ok := s.index[k]; ok {
		return false, i
	}
	s.index[k] = len(s.members)
	s.members = append(s.members, v)
	return true, len(s.members) - 1
}

// Remove deletes v and reports whether it was present.
func (s *Set) Remove(v Value) bool {
	i, ok := s.index[keyOf(v)]
	if !ok {
		return false
	}
	s.members = slices.Delete(s.members, i, i+1)
	clear(s.index)
	for j, m := range s.members {
		s.index[keyOf(m)] = j
	}
	return true
}

// Clear removes every member.
func (s *Set) Clear() {
	s.members = nil
	s.index = make(map[collectionKey]int)
}

// Members returns a snapshot of the members in insertion order.
func (s *Set) Members() []Value {
	return slices.Clone(s.members)
}

// Props returns the bag of plain properties assigned to the set.
func (s *Set) Props() *Object {
	if s.props == nil {
		s.props = NewObject()
	}
	return s.props
}

// Get implements Trackable by reading a plain property.
func (s *Set) Get(key Value) (Value, error) {
	k := PropertyKey(key)
	if k == "size" {
		return Int(len(s.members)), nil
	}
	if s.props == nil {
		return Undefined{}, nil
	}
	return s.props.GetWith(k, s)
}

// Set implements Trackable by writing a plain property.
func (s *Set) Set(key, v Value) error {
	k := PropertyKey(key)
	if k == "size" {
		return fmt.Errorf("set size: %w", ErrNotWritable)
	}
	return s.Props().SetWith(k, Unwrap(Normalize(v)), s)
}

// Delete implements Trackable by deleting a plain property.
func (s *Set) Delete(key Value) (bool, error) {
	if s.props == nil {
		return false, nil
	}
	return s.props.Remove(PropertyKey(key))
}

// Call implements Trackable for add, has, delete, clear, values, keys,
// entries and forEach.
func (s *Set) Call(method string, args ...Value) (Value, error) {
	switch method {
	case "add":
		s.Add(arg(args, 0))
		return s, nil
	case "has":
		return Bool(s.Has(arg(args, 0))), nil
	case "delete":
		return Bool(s.Remove(arg(args, 0))), nil
	case "clear":
		s.Clear()
		return Undefined{}, nil
	case "values", "keys":
		return NewArray(s.Members()...), nil
	case "entries":
		out := NewArray()
		for _, m := range s.members {
			out.Push(NewArray(m, m))
		}
		return out, nil
	case "forEach":
		fn, ok := Unwrap(arg(args, 0)).(*Function)
		if !ok {
			return nil, fmt.Errorf("forEach: %w", ErrNotCallable)
		}
		for _, m := range s.Members() {
			if _, err := fn.Invoke(s, m, m, s); err != nil {
				return nil, err
			}
		}
		return Undefined{}, nil
	}
	return callMethod(s, method, args)
}

// arg returns args[i] or Undefined.
func arg(args []Value, i int) Value {
	if i < len(args) {
		return Normalize(args[i])
	}
	return Undefined{}
}

// Package track wraps value graphs so that mutations made through the
// wrappers are reported as change events.
//
// Cover builds a Context for a root value and returns the root's wrapper.
// Wrappers for nested containers are built lazily as they are read, each
// registered under the dotted path it was first reached by. Every
// interception computes the affected path and hands an Event to the
// context's observers synchronously, before the mutating call returns.
//
// Handlers pick the wrapper kind by priority:
//
//	opaque  (1)  *value.Date  -> DateProxy
//	map     (2)  *value.Map   -> MapProxy
//	set     (3)  *value.Set   -> SetProxy
//	object  (99) anything     -> ObjectProxy
//
// A container may sit at only one path. Reaching a registered container by
// a second path fails with GraphNotTreeError, unless the container was
// removed from its first position in the meantime.
//
// Example:
//
//	root, _ := track.Cover(value.ObjectOf(value.P("a", value.ObjectOf(value.P("b", value.Int(1))))))
//	track.Observe(root, func(ev track.Event) error {
//		fmt.Println(ev.Path, ev.Old, ev.New) // a.b 1 2
//		return nil
//	})
//	a, _ := root.(value.Trackable).Get(value.String("a"))
//	a.(value.Trackable).Set(value.String("b"), value.Int(2))
package track

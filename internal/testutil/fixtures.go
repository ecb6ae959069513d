package testutil

import "github.com/roach88/covert/internal/value"

// CartGraph returns a fresh sample graph touching every container kind:
//
//	{
//	  name: "cart",
//	  items: [{sku: "a-1", qty: 1}, {sku: "b-2", qty: 3}],
//	  tags: Set{"new"},
//	  prices: Map{"a-1" => 250, "b-2" => 100},
//	  updated: Date(1614816000000),
//	}
func CartGraph() *value.Object {
	return value.ObjectOf(
		value.P("name", value.String("cart")),
		value.P("items", value.NewArray(
			value.ObjectOf(value.P("sku", value.String("a-1")), value.P("qty", value.Int(1))),
			value.ObjectOf(value.P("sku", value.String("b-2")), value.P("qty", value.Int(3))),
		)),
		value.P("tags", value.NewSet(value.String("new"))),
		value.P("prices", value.NewMap(
			value.E(value.String("a-1"), value.Int(250)),
			value.E(value.String("b-2"), value.Int(100)),
		)),
		value.P("updated", value.DateFromMillis(1614816000000)),
	)
}

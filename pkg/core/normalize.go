package core

import "fmt"

// Normalize turns a children argument list into an ordered element list.
// Nested slices and unkeyed fragments are flattened, nils and booleans are
// dropped, and strings, numbers and fmt.Stringers become text elements.
func Normalize(children ...any) []*Element {
	out := make([]*Element, 0, len(children))
	var add func(c any)
	add = func(c any) {
		switch v := c.(type) {
		case nil, bool:
		case *Element:
			if v == nil {
				return
			}
			if v.Kind == KindFragment && v.Key == nil {
				for _, child := range v.Props.Children {
					add(child)
				}
				return
			}
			out = append(out, v)
		case []*Element:
			for _, child := range v {
				add(child)
			}
		case []any:
			for _, child := range v {
				add(child)
			}
		case string:
			out = append(out, Text(v))
		case fmt.Stringer:
			out = append(out, Text(v.String()))
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			out = append(out, Text(fmt.Sprint(v)))
		default:
			panic(fmt.Sprintf("core: cannot render child of type %T", c))
		}
	}
	for _, c := range children {
		add(c)
	}
	return out
}

package clx

import (
	"go.uber.org/zap"
)

// collector assembles the children of a container. Named children land in
// an Object, unnamed children accumulate under the empty name.
type collector struct {
	logger  *zap.SugaredLogger
	obj     *Object
	unnamed Array
}

func newCollector(d *Decoder) *collector {
	return &collector{logger: d.logger, obj: NewObject()}
}

func (c *collector) add(name string, v Value) {
	if name == "" {
		c.unnamed = append(c.unnamed, v)
		if len(c.unnamed) == 1 {
			c.obj.Set("", v)
		} else {
			c.obj.Set("", c.unnamed)
		}
		return
	}

	if c.obj.Has(name) {
		c.logger.Debugw("duplicate record name, keeping the last value", "name", name)
	}
	c.obj.Set(name, v)
}

// splice merges the root of a decompressed sub-stream into the container.
func (c *collector) splice(v Value) {
	switch t := v.(type) {
	case *Object:
		for _, k := range t.Keys() {
			e, _ := t.Get(k)
			if k == "" {
				for _, u := range unnamedMembers(e) {
					c.add("", u)
				}
				continue
			}
			c.add(k, e)
		}
	case Array:
		for _, e := range t {
			c.add("", e)
		}
	default:
		c.add("", v)
	}
}

// unnamedMembers expands the accumulated value stored under the empty name.
func unnamedMembers(v Value) []Value {
	if a, ok := v.(Array); ok {
		return a
	}
	return []Value{v}
}

func (c *collector) result() Value {
	keys := c.obj.Keys()

	if len(keys) == 1 && keys[0] == "" && len(c.unnamed) >= 2 {
		return c.unnamed
	}

	if len(keys) < 2 {
		return c.obj
	}
	for _, k := range keys {
		if _, ok := IndexOf(k); !ok {
			return c.obj
		}
	}

	sorted := SortedKeys(c.obj)
	a := make(Array, 0, len(sorted))
	for _, k := range sorted {
		v, _ := c.obj.Get(k)
		a = append(a, v)
	}
	return a
}

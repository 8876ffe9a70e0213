package qs

// merge folds source into target and returns the combined node. New data
// is added next to what is already there: scalars become extra array
// entries or "true" object keys, arrays merge index by index, objects merge
// key by key. target may be modified in place.
func merge(target, source *Node, o *Options) *Node {
	if !source.truthy() {
		return target
	}

	if !source.isContainer() {
		switch target.Kind() {
		case Array:
			target.items = append(target.items, source)
		case Object:
			if key := source.Text(); key != protoKey && !o.reserved(key) {
				target.Set(key, NewBool(true))
			}
		default:
			return NewArray(target, source)
		}
		return target
	}

	if !target.isContainer() {
		out := NewArray(target)
		if source.Kind() == Array {
			out.items = append(out.items, source.items...)
		} else {
			out.items = append(out.items, source)
		}
		return out
	}

	if target.Kind() == Array && source.Kind() == Array {
		for i, item := range source.items {
			if item == nil {
				continue
			}
			if i >= len(target.items) || target.items[i] == nil {
				target.SetIndex(i, item)
				continue
			}
			if existing := target.items[i]; existing.isContainer() && item.isContainer() {
				target.items[i] = merge(existing, item, o)
			} else {
				target.items = append(target.items, item)
			}
		}
		return target
	}

	dst := target
	if target.Kind() == Array {
		dst = arrayToObject(target)
	}
	source.each(func(key string, value *Node) {
		if existing, ok := dst.Get(key); ok {
			dst.Set(key, merge(existing, value, o))
		} else {
			dst.Set(key, value)
		}
	})
	return dst
}

// arrayToObject keys the present entries of an array by their index.
func arrayToObject(arr *Node) *Node {
	obj := NewObject()
	arr.each(obj.Set)
	return obj
}

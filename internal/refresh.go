package internal

// upstreamResolver returns the current loop of an output port.
type upstreamResolver func(PortID) (LoopedValue, bool)

// refreshInputs reconciles existing observers against a schema input list by
// positional index. count is the target length; fallback sources the value of
// a new observer when the schema declares neither upstream nor literal.
//
// Observers present in both lists are updated in place, new indices get fresh
// observers, indices past count are dropped. An existing observer without a
// schema entry is a violation: the previous list is returned untouched.
func (rt *Runtime) refreshInputs(
	nodeID NodeID,
	count int,
	schema []PortConnection,
	existing []*InputObserver,
	fallback func(int) LoopedValue,
	resolve upstreamResolver,
) ([]*InputObserver, error) {
	schema = schemaOrCurrent(schema, existing)

	// validate everything before mutating anything
	if i, missing := missingSchemaInput(count, schema, existing); missing {
		return existing, rt.violate("refreshInputs", nil,
			"node %s: missing schema input %d for existing observer", nodeID, i)
	}

	observers := make([]*InputObserver, 0, count)
	for i := 0; i < count; i++ {
		id := PortID{Node: nodeID, Port: i}

		var conn PortConnection
		hasSchema := i < len(schema)
		if hasSchema {
			conn = schema[i]
		}

		if i < len(existing) {
			o := existing[i]
			o.Update(InputEntity{ID: id, Connection: conn})
			if up, ok := o.Upstream(); ok && resolve != nil {
				if values, ok := resolve(up); ok {
					o.SetValues(values)
				}
			}
			observers = append(observers, o)
			continue
		}

		switch {
		case conn.Upstream != nil:
			values, ok := LoopedValue(nil), false
			if resolve != nil {
				values, ok = resolve(*conn.Upstream)
			}
			if !ok {
				values = fallback(i)
			}
			observers = append(observers, NewInputObserver(id, values, conn.Upstream))

		case hasSchema && len(conn.Values) > 0:
			observers = append(observers, NewInputObserver(id, conn.Values, nil))

		default:
			observers = append(observers, NewInputObserver(id, fallback(i), nil))
		}
	}

	return observers, nil
}

// refreshOutputs mirrors values into output observers by index, reusing
// existing observers where the index survives.
func refreshOutputs(nodeID NodeID, values []LoopedValue, existing []*OutputObserver) []*OutputObserver {
	observers := make([]*OutputObserver, len(values))
	for i, v := range values {
		if i < len(existing) {
			existing[i].id = PortID{Node: nodeID, Port: i}
			existing[i].SetValues(v)
			observers[i] = existing[i]
			continue
		}

		observers[i] = NewOutputObserver(PortID{Node: nodeID, Port: i}, v)
	}
	return observers
}

// schemaOrCurrent keeps the observers as they are when a snapshot declares no
// inputs at all, the form an empty component or variadic node imports from.
func schemaOrCurrent(schema []PortConnection, existing []*InputObserver) []PortConnection {
	if len(schema) > 0 || len(existing) == 0 {
		return schema
	}

	current := make([]PortConnection, len(existing))
	for i, o := range existing {
		current[i] = o.Schema().Connection
	}
	return current
}

// missingSchemaInput finds the first surviving observer index the schema does not cover.
func missingSchemaInput(count int, schema []PortConnection, existing []*InputObserver) (int, bool) {
	for i := 0; i < count && i < len(existing); i++ {
		if i >= len(schema) {
			return i, true
		}
	}
	return 0, false
}

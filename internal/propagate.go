package internal

import "slices"

// EvaluateComponentOutputs carries a change of this embedded graph's output
// splitters up to the parent graph. Only the consumers of the ports whose
// loop actually changed seed the parent pass.
//
// It runs on its own after an out-of-band pass over the embedded graph; a
// top-down component evaluation already reads the splitters itself.
func (g *Graph) EvaluateComponentOutputs() (PassResult, error) {
	parent, node, ok := g.Parent()
	if !ok {
		return PassResult{}, g.rt.violate("evaluateComponentOutputs", ErrNodeNotFound,
			"graph %s at %v has no parent component", g.id, g.saveLocation)
	}

	c := node.component
	previous := outputValues(c.outputs)
	current := c.evaluateOutputSplitters()

	var changed []PortID
	var seeds []NodeID
	for i, values := range current {
		if i < len(previous) && previous[i].Equal(values) {
			continue
		}

		port := PortID{Node: node.id, Port: i}
		changed = append(changed, port)

		for _, in := range parent.consumers(port) {
			if o, ok := parent.Input(in); ok {
				o.SetValues(values)
			}
			if !slices.Contains(seeds, in.Node) {
				seeds = append(seeds, in.Node)
			}
		}
	}

	c.log.Debug("component outputs changed",
		"component", c.componentID,
		"node", node.id,
		"ports", len(changed),
		"seeds", len(seeds),
	)

	if len(seeds) == 0 {
		return PassResult{ChangedOutputs: changed}, nil
	}

	if parent.batcher.IsBatching() {
		parent.enqueue(seeds...)
		return PassResult{ChangedOutputs: changed}, nil
	}

	result, err := parent.recalculate(seeds)
	if err != nil {
		return result, err
	}

	result.ChangedOutputs = append(changed, result.ChangedOutputs...)
	parent.lastPass = result
	return result, nil
}

package tui

import "strings"

// buildTree groups step names of the form runtime/layer/phase into a tree.
// Group rows have no output pane. Leaf rows share the canonical node of their step.
func buildTree(steps []string, stepMap map[string]*StepNode) []*StepNode {
	roots := make([]*StepNode, 0)
	groups := make(map[string]*StepNode)

	for _, name := range steps {
		canonical := stepMap[name]
		if canonical == nil {
			continue
		}

		parts := strings.Split(name, "/")
		var parent *StepNode
		for depth := range len(parts) - 1 {
			key := strings.Join(parts[:depth+1], "/")
			group, ok := groups[key]
			if !ok {
				group = &StepNode{
					Name:       key,
					Label:      parts[depth],
					IsExpanded: depth == 0,
					Depth:      depth,
					Parent:     parent,
				}
				groups[key] = group
				if parent == nil {
					roots = append(roots, group)
				} else {
					parent.Children = append(parent.Children, group)
				}
			}
			parent = group
		}

		leaf := &StepNode{
			Name:          canonical.Name,
			Label:         parts[len(parts)-1],
			Output:        canonical.Output,
			Depth:         len(parts) - 1,
			Parent:        parent,
			CanonicalNode: canonical,
		}
		if parent == nil {
			roots = append(roots, leaf)
		} else {
			parent.Children = append(parent.Children, leaf)
		}
	}

	return roots
}

// flattenTree lists the visible rows. Children of collapsed nodes are skipped.
func flattenTree(roots []*StepNode) []*StepNode {
	flat := make([]*StepNode, 0)

	var walk func(node *StepNode)
	walk = func(node *StepNode) {
		flat = append(flat, node)
		if node.IsExpanded {
			for _, child := range node.Children {
				walk(child)
			}
		}
	}

	for _, root := range roots {
		walk(root)
	}

	return flat
}

// expandPath opens every group above node.
func expandPath(node *StepNode) {
	for p := node.Parent; p != nil; p = p.Parent {
		p.IsExpanded = true
	}
}

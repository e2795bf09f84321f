// Package validator performs structural validation of tree descriptions
// without needing a system factory, so the validate command can check a
// description before any systems exist.
package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
)

// ValidateDescription checks a description for structural problems:
// duplicate state or instance names, unknown children, states claimed by
// more than one parent, and a missing or non-leaf main state. It collects
// every problem instead of stopping at the first.
func ValidateDescription(desc *domain.TreeDescription) error {
	var problems []string

	states := make(map[string]domain.StateDescription)
	parents := make(map[string]string)
	instances := make(map[string]string)

	for _, sd := range desc.States {
		if sd.Name == "" {
			problems = append(problems, "state with empty name")
			continue
		}
		if _, dup := states[sd.Name]; dup {
			problems = append(problems, fmt.Sprintf("state %q declared twice", sd.Name))
			continue
		}
		states[sd.Name] = sd

		for _, sys := range sd.Systems {
			if sys.Type == "" {
				problems = append(problems, fmt.Sprintf("state %q: system with empty type", sd.Name))
				continue
			}
			name := sys.InstanceName()
			if owner, dup := instances[name]; dup {
				problems = append(problems,
					fmt.Sprintf("system instance %q declared in both %q and %q", name, owner, sd.Name))
				continue
			}
			instances[name] = sd.Name
		}
	}

	for _, sd := range desc.States {
		for _, child := range sd.Children {
			if _, ok := states[child]; !ok {
				problems = append(problems, fmt.Sprintf("state %q: unknown child %q", sd.Name, child))
				continue
			}
			if owner, claimed := parents[child]; claimed {
				problems = append(problems,
					fmt.Sprintf("state %q claimed as child by both %q and %q", child, owner, sd.Name))
				continue
			}
			parents[child] = sd.Name
		}
	}

	if desc.Main != "" {
		main, ok := states[desc.Main]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("main state %q does not exist", desc.Main))
		case len(main.Children) > 0:
			problems = append(problems, fmt.Sprintf("main state %q is not a leaf", desc.Main))
		}
	} else {
		hasLeaf := false
		for _, sd := range desc.States {
			if len(sd.Children) == 0 {
				hasLeaf = true
				break
			}
		}
		if !hasLeaf {
			problems = append(problems, "description has no leaf states")
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("description %q: %d problem(s):\n  - %s",
		desc.Name, len(problems), strings.Join(problems, "\n  - "))
}

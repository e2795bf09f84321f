package domain

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// TreeDescription is the declarative form of a state tree.
// It is what loaders produce and what the engine consumes.
type TreeDescription struct {
	// Name identifies the tree (used for logging and metrics labels).
	Name string `json:"name" yaml:"name"`

	// Main names the leaf that becomes active after initialization.
	// If empty, the first leaf in declaration order is used.
	Main string `json:"main,omitempty" yaml:"main,omitempty"`

	// States lists every node of the hierarchy, roots and children alike.
	States []StateDescription `json:"states" yaml:"states"`
}

// StateDescription declares one node of the hierarchy.
type StateDescription struct {
	Name string `json:"name" yaml:"name"`

	// Children lists the names of states owned by this one.
	// Forward references are allowed; linking happens in a second pass.
	Children []string `json:"children,omitempty" yaml:"children,omitempty"`

	// Systems lists the logic units attached to this state, in activation order.
	Systems []SystemDescription `json:"systems,omitempty" yaml:"systems,omitempty"`
}

// SystemDescription declares one logic unit attached to a state.
// In serialized form it is either a bare type-name string or a full record.
type SystemDescription struct {
	// Name is the instance name, unique across the whole tree.
	// Defaults to Type when empty.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Type is the factory type name.
	Type string `json:"type" yaml:"type"`

	// Params holds declared values for the type's parameter schema.
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`

	// Options holds free-form per-instance configuration the system
	// decodes itself (see registry.DecodeOptions).
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// InstanceName returns the effective instance name (Name, or Type as fallback).
func (s SystemDescription) InstanceName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Type
}

// systemRecord mirrors SystemDescription for the record form, avoiding
// unmarshal recursion.
type systemRecord struct {
	Name    string         `json:"name" yaml:"name"`
	Type    string         `json:"type" yaml:"type"`
	Params  map[string]any `json:"params" yaml:"params"`
	Options map[string]any `json:"options" yaml:"options"`
}

// UnmarshalJSON accepts either "type_name" or {"name": ..., "type": ...}.
func (s *SystemDescription) UnmarshalJSON(data []byte) error {
	var typeName string
	if err := json.Unmarshal(data, &typeName); err == nil {
		*s = SystemDescription{Type: typeName}
		return nil
	}

	var rec systemRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("system description: %w", err)
	}
	if rec.Type == "" {
		return fmt.Errorf("system description: missing type")
	}
	*s = SystemDescription(rec)
	return nil
}

// UnmarshalYAML accepts the same two forms as UnmarshalJSON.
func (s *SystemDescription) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var typeName string
		if err := value.Decode(&typeName); err != nil {
			return fmt.Errorf("system description: %w", err)
		}
		*s = SystemDescription{Type: typeName}
		return nil
	}

	var rec systemRecord
	if err := value.Decode(&rec); err != nil {
		return fmt.Errorf("system description: %w", err)
	}
	if rec.Type == "" {
		return fmt.Errorf("system description: missing type")
	}
	*s = SystemDescription(rec)
	return nil
}

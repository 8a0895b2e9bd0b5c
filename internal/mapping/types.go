package mapping

import (
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"flat-mapper/internal/common"
)

// File is a parsed column configuration document.
type File struct {
	Version    string        `yaml:"version"`
	DateFormat string        `yaml:"date_format,omitempty"`
	TimeZone   string        `yaml:"time_zone,omitempty"`
	Match      string        `yaml:"match,omitempty"`
	Keys       StringOrArray `yaml:"keys,omitempty"`
	Columns    []Column      `yaml:"columns,omitempty"`
}

// Column configures one column by name.
type Column struct {
	Name       string `yaml:"name"`
	Rename     string `yaml:"rename,omitempty"`
	DateFormat string `yaml:"date_format,omitempty"`
	TimeZone   string `yaml:"time_zone,omitempty"`
	Key        bool   `yaml:"key,omitempty"`
	KeyScope   string `yaml:"key_scope,omitempty"`
	Ignore     bool   `yaml:"ignore,omitempty"`
}

// Key scopes.
const (
	ScopeAny = "any"
	ScopeTop = "top"
)

// StringOrArray is a list that may be written as a single YAML string.
type StringOrArray []string

// UnmarshalYAML accepts either a single string or an array of strings.
func (s *StringOrArray) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var str string

		err := node.Decode(&str)
		if err != nil {
			return err
		}

		if str != "" {
			*s = StringOrArray{str}
		} else {
			*s = StringOrArray{}
		}

		return nil

	case yaml.SequenceNode:
		var arr []string

		err := node.Decode(&arr)
		if err != nil {
			return err
		}

		*s = arr

		return nil

	default:
		return fmt.Errorf("expected string or array, got %v", node.Kind)
	}
}

// MarshalYAML outputs a single string if length is 1, otherwise an array.
func (s StringOrArray) MarshalYAML() (any, error) {
	if common.IsSingle(s) {
		return s[0], nil
	}

	return []string(s), nil
}

// First returns the first element or empty string if empty.
func (s StringOrArray) First() string {
	if v, ok := common.First(s); ok {
		return v
	}

	return ""
}

// Contains returns true if the array contains the given string.
func (s StringOrArray) Contains(str string) bool {
	return slices.Contains(s, str)
}

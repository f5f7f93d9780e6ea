package course

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a course definition from a YAML (or JSON) file and validates it.
func Load(path string) (Course, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Course{}, fmt.Errorf("read course file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a course definition and validates it.
func Parse(data []byte) (Course, error) {
	var c Course
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Course{}, fmt.Errorf("decode course: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Course{}, fmt.Errorf("invalid course %q: %w", c.Name, err)
	}
	return c, nil
}

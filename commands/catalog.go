// Package commands turns the declarative event catalogue into parameterized
// quiz commands.
package commands

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed events.yaml
var defaultEvents []byte

// commandPattern matches what the chat platform accepts as a command name.
var commandPattern = regexp.MustCompile(`^[a-z0-9_]{1,32}$`)

// Definition is one quiz category and the command that serves it.
type Definition struct {
	Name      string   `yaml:"name"`
	Command   string   `yaml:"command"`
	Divisions []string `yaml:"divisions"`
	Subtopics []string `yaml:"subtopics"`
}

type catalogFile struct {
	Events []Definition `yaml:"events"`
}

// Catalog is the set of event commands.
type Catalog struct {
	defs      []Definition
	byCommand map[string]int
}

// Default returns the built-in catalogue.
func Default() (*Catalog, error) {
	return Parse(defaultEvents)
}

// LoadFile reads a catalogue from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalogue.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	if len(file.Events) == 0 {
		return nil, errors.New("events catalogue is empty")
	}

	c := &Catalog{byCommand: make(map[string]int, len(file.Events))}
	for i, def := range file.Events {
		def.Name = strings.TrimSpace(def.Name)
		def.Command = strings.ToLower(strings.TrimSpace(def.Command))
		if def.Name == "" {
			return nil, fmt.Errorf("event %d has no name", i+1)
		}
		if !commandPattern.MatchString(def.Command) {
			return nil, fmt.Errorf("event %q has invalid command %q", def.Name, def.Command)
		}
		if _, dup := c.byCommand[def.Command]; dup {
			return nil, fmt.Errorf("command %q is defined twice", def.Command)
		}
		for j, div := range def.Divisions {
			def.Divisions[j] = strings.ToUpper(strings.TrimSpace(div))
		}
		c.byCommand[def.Command] = len(c.defs)
		c.defs = append(c.defs, def)
	}
	return c, nil
}

// Lookup finds the definition served by command.
func (c *Catalog) Lookup(command string) (Definition, bool) {
	i, ok := c.byCommand[strings.ToLower(command)]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}

// Definitions returns all definitions in catalogue order.
func (c *Catalog) Definitions() []Definition {
	return append([]Definition(nil), c.defs...)
}

// Package project loads the modeler project file: the state schema, the node palette
// and the simulated traces produced by the simulation engine.
package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lgmodeler/lgmodeler/pkg/status"
)

// Field is one key of the graph state schema.
type Field struct {
	Key         string `yaml:"key" json:"key"`
	Type        string `yaml:"type" json:"type"`
	Reducer     string `yaml:"reducer,omitempty" json:"reducer,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// NodeKind is an entry of the node palette.
type NodeKind struct {
	ID          string `yaml:"id" json:"id"`
	Label       string `yaml:"label" json:"label"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Step is one execution unit of a simulated run.
type Step struct {
	Node   string            `yaml:"node" json:"node"`
	Status status.StepStatus `yaml:"status" json:"status"`
	Note   string            `yaml:"note,omitempty" json:"note,omitempty"`
}

// Trace is a simulated run, steps in execution order.
type Trace struct {
	ID        string    `yaml:"id" json:"id"`
	Name      string    `yaml:"name" json:"name"`
	StartedAt time.Time `yaml:"started_at,omitempty" json:"startedAt,omitzero"`
	Steps     []Step    `yaml:"steps" json:"steps"`
}

// Counts returns how many steps ended in each status.
func (t Trace) Counts() map[status.StepStatus]int {
	res := make(map[status.StepStatus]int, len(status.All()))
	for _, s := range t.Steps {
		res[s.Status]++
	}
	return res
}

// Project is the content of a project file.
type Project struct {
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Schema      []Field    `yaml:"schema" json:"schema"`
	Palette     []NodeKind `yaml:"palette" json:"palette"`
	Traces      []Trace    `yaml:"traces" json:"traces"`
}

// Field returns the schema field with the given key.
func (p *Project) Field(key string) (Field, bool) {
	for _, f := range p.Schema {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// JSON returns the project encoded for the /api/project endpoint.
func (p *Project) JSON() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal project: %w", err)
	}
	return data, nil
}

// Empty returns the project used when no project file is configured.
func Empty() *Project {
	return &Project{Name: "untitled"}
}

// Load reads and validates a project file.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from config or cli
	if err != nil {
		return nil, fmt.Errorf("read project %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes and validates project YAML. unknown keys are rejected.
func Parse(data []byte) (*Project, error) {
	var p Project
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Name == "" {
		p.Name = "untitled"
	}
	return &p, nil
}

// Validate checks keys and ids for emptiness and uniqueness.
// step statuses are already guaranteed by status.StepStatus decoding.
func (p *Project) Validate() error {
	var errs []error

	fields := make(map[string]bool, len(p.Schema))
	for i, f := range p.Schema {
		key := strings.TrimSpace(f.Key)
		switch {
		case key == "":
			errs = append(errs, fmt.Errorf("schema[%d]: empty key", i))
		case fields[key]:
			errs = append(errs, fmt.Errorf("schema[%d]: duplicate key %q", i, key))
		}
		fields[key] = true
	}

	nodes := make(map[string]bool, len(p.Palette))
	for i, n := range p.Palette {
		if n.ID == "" {
			errs = append(errs, fmt.Errorf("palette[%d]: empty id", i))
			continue
		}
		if nodes[n.ID] {
			errs = append(errs, fmt.Errorf("palette[%d]: duplicate id %q", i, n.ID))
		}
		nodes[n.ID] = true
	}

	traces := make(map[string]bool, len(p.Traces))
	for i, t := range p.Traces {
		if t.ID == "" {
			errs = append(errs, fmt.Errorf("traces[%d]: empty id", i))
		} else if traces[t.ID] {
			errs = append(errs, fmt.Errorf("traces[%d]: duplicate id %q", i, t.ID))
		}
		traces[t.ID] = true
		for j, s := range t.Steps {
			if s.Node == "" {
				errs = append(errs, fmt.Errorf("traces[%d].steps[%d]: empty node", i, j))
			}
			if s.Status == "" {
				errs = append(errs, fmt.Errorf("traces[%d].steps[%d]: missing status", i, j))
			}
		}
	}

	return errors.Join(errs...)
}

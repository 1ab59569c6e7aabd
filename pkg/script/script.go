// Package script loads scenario definitions from YAML and turns them into
// sequencer steps wired to the harness components.
package script

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/umputun/chatcheck/pkg/action"
	"github.com/umputun/chatcheck/pkg/dom"
)

//go:embed scenarios/frontend.yml
var defaultScenario []byte

// step operations.
const (
	opSanity      = "sanity"
	opSend        = "send"
	opWaitReceive = "wait_receive"
	opExpect      = "expect"
	opNarrow      = "narrow"
	opUnnarrow    = "unnarrow"
	opInfo        = "info"
)

// Definition is a scenario file.
type Definition struct {
	Name  string    `yaml:"name"`
	Login bool      `yaml:"login"`
	Steps []StepDef `yaml:"steps"`
}

// StepDef is one step of a scenario file. exactly one operation is set.
type StepDef struct {
	Op     string
	Line   int
	Table  dom.Table // sanity
	Send   *SendDef
	Expect *ExpectDef
	Narrow *NarrowDef
	Text   string // info
}

// SendDef describes a message to send.
type SendDef struct {
	Type       string   `yaml:"type"`
	Stream     string   `yaml:"stream"`
	Subject    string   `yaml:"subject"`
	Recipients []string `yaml:"recipients"`
	Content    string   `yaml:"content"`
	Wait       *bool    `yaml:"wait"` // wait for the compose button first, default true
}

// ExpectDef is the expected tail of a table.
type ExpectDef struct {
	Table    string   `yaml:"table"`
	Headings []string `yaml:"headings"`
	Bodies   []string `yaml:"bodies"`
}

// NarrowDef selects a narrow. recipients are display names.
type NarrowDef struct {
	Stream     string   `yaml:"stream"`
	Subject    string   `yaml:"subject"`
	Recipients []string `yaml:"recipients"`
}

// Message converts the definition into a message.
func (s SendDef) Message() (action.Message, error) {
	kind, err := action.ParseKind(s.Type)
	if err != nil {
		return action.Message{}, err
	}
	msg := action.Message{Kind: kind, Stream: s.Stream, Subject: s.Subject, Recipients: s.Recipients, Content: s.Content}
	if err := msg.Validate(); err != nil {
		return action.Message{}, err
	}
	return msg, nil
}

// Waits reports whether the send waits for the compose button.
func (s SendDef) Waits() bool {
	return s.Wait == nil || *s.Wait
}

// UnmarshalYAML decodes a step written either as a bare operation name
// ("- unnarrow") or as a single-key mapping ("- send: {...}").
func (s *StepDef) UnmarshalYAML(n *yaml.Node) error {
	s.Line = n.Line
	switch n.Kind {
	case yaml.ScalarNode:
		s.Op = n.Value
		if s.Op != opWaitReceive && s.Op != opUnnarrow {
			return fmt.Errorf("line %d: step %q needs a value", n.Line, s.Op)
		}
		return nil
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			return fmt.Errorf("line %d: step must have exactly one operation, got %d", n.Line, len(n.Content)/2)
		}
	default:
		return fmt.Errorf("line %d: step must be an operation name or a mapping", n.Line)
	}

	s.Op = n.Content[0].Value
	body := n.Content[1]
	var err error
	switch s.Op {
	case opSanity:
		var table string
		if err = body.Decode(&table); err == nil {
			s.Table, err = dom.ParseTable(table)
		}
	case opSend:
		s.Send = &SendDef{}
		err = body.Decode(s.Send)
	case opExpect:
		s.Expect = &ExpectDef{}
		err = body.Decode(s.Expect)
	case opNarrow:
		s.Narrow = &NarrowDef{}
		err = body.Decode(s.Narrow)
	case opInfo:
		err = body.Decode(&s.Text)
	case opWaitReceive, opUnnarrow:
	default:
		return fmt.Errorf("line %d: unknown step %q", n.Line, s.Op)
	}
	if err != nil {
		return fmt.Errorf("line %d: %s: %w", n.Line, s.Op, err)
	}
	return nil
}

// Parse decodes a scenario definition. unknown top-level fields are errors.
func Parse(data []byte) (Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		return Definition{}, fmt.Errorf("parse scenario: %w", err)
	}
	if len(def.Steps) == 0 {
		return Definition{}, errors.New("parse scenario: no steps")
	}
	return def, nil
}

// Load reads and parses a scenario file.
func Load(path string) (Definition, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided scenario path
	if err != nil {
		return Definition{}, fmt.Errorf("read scenario: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return Definition{}, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Default returns the embedded frontend scenario.
func Default() Definition {
	def, err := Parse(defaultScenario)
	if err != nil {
		panic(fmt.Sprintf("embedded scenario: %v", err))
	}
	return def
}

// DefaultYAML returns the embedded frontend scenario source.
func DefaultYAML() []byte {
	return bytes.Clone(defaultScenario)
}

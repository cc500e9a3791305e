package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Requirement is the level a career expects for one skill. A level of 0 or
// less means no requirement.
type Requirement struct {
	Skill string `json:"skill" yaml:"skill"`
	Level int    `json:"level" yaml:"level"`
}

// Requirements keeps catalog order. It is encoded as a JSON object or YAML
// mapping whose key order is preserved on decode.
type Requirements []Requirement

// Level returns the required level for skill and whether it is listed.
func (r Requirements) Level(skill string) (int, bool) {
	for _, req := range r {
		if req.Skill == skill {
			return req.Level, true
		}
	}
	return 0, false
}

// Skills returns the skill names in order.
func (r Requirements) Skills() []string {
	skills := make([]string, len(r))
	for i, req := range r {
		skills[i] = req.Skill
	}
	return skills
}

func (r Requirements) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, req := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(req.Skill)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		fmt.Fprintf(&buf, ":%d", req.Level)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Requirements) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*r = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("requirements must be an object of skill to level, got %v", tok)
	}

	out := Requirements{}
	seen := make(map[string]struct{})
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		skill, _ := keyTok.(string)
		if _, dup := seen[skill]; dup {
			return fmt.Errorf("duplicate requirement %q", skill)
		}
		seen[skill] = struct{}{}

		var level int
		if err := dec.Decode(&level); err != nil {
			return fmt.Errorf("requirement %q: %w", skill, err)
		}
		out = append(out, Requirement{Skill: skill, Level: level})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*r = out
	return nil
}

func (r Requirements) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, req := range r {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: req.Skill},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprint(req.Level)},
		)
	}
	return node, nil
}

func (r *Requirements) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: requirements must be a mapping of skill to level", value.Line)
	}

	out := make(Requirements, 0, len(value.Content)/2)
	seen := make(map[string]struct{})
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, valNode := value.Content[i], value.Content[i+1]
		if _, dup := seen[keyNode.Value]; dup {
			return fmt.Errorf("line %d: duplicate requirement %q", keyNode.Line, keyNode.Value)
		}
		seen[keyNode.Value] = struct{}{}

		var level int
		if err := valNode.Decode(&level); err != nil {
			return fmt.Errorf("line %d: requirement %q: %w", valNode.Line, keyNode.Value, err)
		}
		out = append(out, Requirement{Skill: keyNode.Value, Level: level})
	}

	*r = out
	return nil
}

// Career is one catalog entry.
type Career struct {
	Title       string       `json:"title" yaml:"title"`
	Technical   Requirements `json:"requirements_tech" yaml:"requirements_tech"`
	Behavioral  Requirements `json:"requirements_beh" yaml:"requirements_beh"`
	Description string       `json:"description" yaml:"description"`
}

// Requirements returns the requirement list for category.
func (c Career) Requirements(category Category) Requirements {
	if category == CategoryBehavioral {
		return c.Behavioral
	}
	return c.Technical
}

// Package prompt assembles the language-model prompt for a chat turn:
// persona system prompt, rendered user preferences, a bounded window of
// recent turns and the current message.
package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/capitalize-ai/companion-chat/internal/model"
)

//go:embed personas.yaml
var personasYAML []byte

const preferencesPlaceholder = "{{preferences}}"

// PersonaSpec is one persona's fixed system prompt.
type PersonaSpec struct {
	Name   string `yaml:"name"`
	System string `yaml:"system"`
}

// Personas is the versioned set of persona templates.
type Personas struct {
	Version           int                           `yaml:"version"`
	Specs             map[model.Persona]PersonaSpec `yaml:"personas"`
	PreferencesClause string                        `yaml:"preferences_clause"`
}

// LoadPersonas parses the embedded persona templates.
func LoadPersonas() (*Personas, error) {
	return ParsePersonas(personasYAML)
}

// ParsePersonas parses persona templates from YAML.
func ParsePersonas(b []byte) (*Personas, error) {
	var p Personas
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("prompt: parse personas: %w", err)
	}
	if _, ok := p.Specs[model.PersonaFoodie]; !ok {
		return nil, fmt.Errorf("prompt: personas must define %q", model.PersonaFoodie)
	}
	if !strings.Contains(p.PreferencesClause, preferencesPlaceholder) {
		return nil, fmt.Errorf("prompt: preferences clause must contain %s", preferencesPlaceholder)
	}
	return &p, nil
}

// SystemPrompt renders the persona's system prompt. Unknown personas use the
// foodie template; the preferences clause is omitted when prefs is empty.
func (p *Personas) SystemPrompt(persona model.Persona, prefs string) string {
	spec, ok := p.Specs[persona]
	if !ok {
		spec = p.Specs[model.PersonaFoodie]
	}
	system := strings.TrimSpace(spec.System)
	if prefs = strings.TrimSpace(prefs); prefs != "" {
		system += "\n" + strings.ReplaceAll(p.PreferencesClause, preferencesPlaceholder, prefs)
	}
	return system
}

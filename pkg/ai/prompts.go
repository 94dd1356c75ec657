package ai

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPromptsYAML []byte

// Prompt names understood by PromptSet.Render.
const (
	PromptGradingSystem = "grading.system"
	PromptGradingUser   = "grading.user"
	PromptChatSystem    = "chat.system"
	PromptChatOpening   = "chat.opening"
	PromptPlanSystem    = "plan.system"
	PromptPlanUser      = "plan.user"
)

type promptFile struct {
	Grading struct {
		System string `yaml:"system"`
		User   string `yaml:"user"`
	} `yaml:"grading"`
	Chat struct {
		System  string `yaml:"system"`
		Opening string `yaml:"opening"`
	} `yaml:"chat"`
	Plan struct {
		System string `yaml:"system"`
		User   string `yaml:"user"`
	} `yaml:"plan"`
}

// PromptSet holds the compiled prompt templates shared by every engine.
type PromptSet struct {
	templates map[string]*template.Template
}

var (
	defaultPromptsOnce sync.Once
	defaultPrompts     *PromptSet
	defaultPromptsErr  error
)

// DefaultPrompts returns the prompt set embedded in the binary.
func DefaultPrompts() (*PromptSet, error) {
	defaultPromptsOnce.Do(func() {
		defaultPrompts, defaultPromptsErr = LoadPrompts(defaultPromptsYAML)
	})
	return defaultPrompts, defaultPromptsErr
}

// LoadPrompts parses a YAML prompt document and compiles every entry.
func LoadPrompts(data []byte) (*PromptSet, error) {
	var file promptFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}

	raw := map[string]string{
		PromptGradingSystem: file.Grading.System,
		PromptGradingUser:   file.Grading.User,
		PromptChatSystem:    file.Chat.System,
		PromptChatOpening:   file.Chat.Opening,
		PromptPlanSystem:    file.Plan.System,
		PromptPlanUser:      file.Plan.User,
	}

	set := &PromptSet{templates: make(map[string]*template.Template, len(raw))}
	for name, body := range raw {
		if strings.TrimSpace(body) == "" {
			return nil, fmt.Errorf("prompt %q is empty", name)
		}
		tmpl, err := template.New(name).Option("missingkey=error").Parse(body)
		if err != nil {
			return nil, fmt.Errorf("compile prompt %q: %w", name, err)
		}
		set.templates[name] = tmpl
	}

	return set, nil
}

// Render executes the named prompt with data and trims surrounding whitespace.
func (p *PromptSet) Render(name string, data interface{}) (string, error) {
	tmpl, ok := p.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	var builder strings.Builder
	if err := tmpl.Execute(&builder, data); err != nil {
		return "", fmt.Errorf("render prompt %q: %w", name, err)
	}
	return strings.TrimSpace(builder.String()), nil
}

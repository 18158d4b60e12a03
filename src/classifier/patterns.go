package classifier

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"www.github.com/Wanderer0074348/HybridRoute/src/models"
)

//go:embed patterns.yaml
var defaultPatterns []byte

// Pattern is one weighted keyword group mapping input to a task type.
type Pattern struct {
	Name                 string                 `yaml:"name"`
	TaskType             models.TaskType        `yaml:"task_type"`
	Keywords             []string               `yaml:"keywords"`
	Weight               float64                `yaml:"weight"`
	Extractors           []Extractor            `yaml:"extractors"`
	Complexity           models.TaskComplexity  `yaml:"complexity"`
	RequiresConfirmation bool                   `yaml:"requires_confirmation"`
	Route                models.ProcessingRoute `yaml:"route"`
}

// Extractor captures a named parameter with the regex's first group.
type Extractor struct {
	Name  string `yaml:"name"`
	Regex string `yaml:"regex"`
}

type patternFile struct {
	Patterns []Pattern `yaml:"patterns"`
}

// DefaultPatterns returns the built-in pattern set.
func DefaultPatterns() ([]Pattern, error) {
	return ParsePatterns(defaultPatterns)
}

// LoadPatternsFile reads a YAML pattern set from disk.
func LoadPatternsFile(path string) ([]Pattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read patterns file: %w", err)
	}
	patterns, err := ParsePatterns(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return patterns, nil
}

// ParsePatterns decodes and validates a YAML pattern set. Extractor regexes
// are not compiled here; a bad one is dropped when the classifier is built.
func ParsePatterns(data []byte) ([]Pattern, error) {
	var file patternFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse patterns: %w", err)
	}
	if len(file.Patterns) == 0 {
		return nil, fmt.Errorf("pattern set is empty")
	}

	seen := make(map[string]bool, len(file.Patterns))
	for i := range file.Patterns {
		p := &file.Patterns[i]
		if p.Name == "" {
			p.Name = fmt.Sprintf("%s_%d", p.TaskType, i)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("pattern %q declared twice", p.Name)
		}
		seen[p.Name] = true

		if err := validatePattern(p); err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p.Name, err)
		}
	}
	return file.Patterns, nil
}

func validatePattern(p *Pattern) error {
	if !p.TaskType.IsValid() || p.TaskType == models.TaskUnknown {
		return fmt.Errorf("unknown task type %q", p.TaskType)
	}
	if p.Complexity == "" {
		p.Complexity = models.ComplexitySimple
	}
	if !p.Complexity.IsValid() {
		return fmt.Errorf("unknown complexity %q", p.Complexity)
	}
	if p.Route != "" && (!p.Route.IsValid() || p.Route == models.RouteCache) {
		return fmt.Errorf("invalid route override %q", p.Route)
	}
	if p.Weight <= 0 {
		return fmt.Errorf("weight must be positive, got %v", p.Weight)
	}
	if len(p.Keywords) == 0 {
		return fmt.Errorf("no keywords")
	}
	for _, kw := range p.Keywords {
		if len(tokenize(Normalize(kw))) == 0 {
			return fmt.Errorf("blank keyword")
		}
	}
	for _, ex := range p.Extractors {
		if ex.Name == "" {
			return fmt.Errorf("extractor without a parameter name")
		}
	}
	return nil
}

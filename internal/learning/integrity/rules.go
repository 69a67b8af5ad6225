package integrity

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const rulesPathEnv = "INTEGRITY_RULES_PATH"

//go:embed rules.yaml
var rulesFS embed.FS

// fallback rules used when the YAML is missing or invalid
var fallbackRules = Rules{
	Version:          1,
	OverlapThreshold: 0.30,
	MinWordLength:    3,
	AnswerRequestPatterns: []string{
		`\b(give|tell|show|send)\s+(me\s+)?(the\s+)?(correct\s+|right\s+)?answers?\b`,
		`\bwhat('s|\s+is|\s+are)\s+(the\s+)?(correct\s+|right\s+)?answers?\b`,
		`\bsolve\s+(this|that|these|it|the)\b`,
		`\b(correct|right)\s+(answer|option|choice)\b`,
		`\bwhich\s+(option|choice|one)\s+is\s+(correct|right)\b`,
		`\banswers?\s+(to|for)\s+(this|the|my)\s+(quiz|test|exam|question)`,
		`\bdo\s+(my|this|the)\s+(quiz|test|exam|assessment)\b`,
	},
	Keywords: []string{"quiz", "test", "exam", "assessment", "question", "answer"},
}

type Rules struct {
	Version               int      `yaml:"version"`
	OverlapThreshold      float64  `yaml:"overlap_threshold"`
	MinWordLength         int      `yaml:"min_word_length"`
	AnswerRequestPatterns []string `yaml:"answer_request_patterns"`
	Keywords              []string `yaml:"keywords"`
}

// DefaultRules returns the embedded rules, or the compiled-in fallback if they do not parse.
func DefaultRules() Rules {
	data, err := rulesFS.ReadFile("rules.yaml")
	if err != nil {
		return fallbackRules
	}
	r, err := ParseRules(data)
	if err != nil {
		return fallbackRules
	}
	return r
}

// LoadRules reads rules from path, or from INTEGRITY_RULES_PATH when path is empty.
// With neither set the embedded rules are returned. An unreadable or invalid override
// still returns usable rules (the embedded defaults) alongside the error.
func LoadRules(path string) (Rules, error) {
	if strings.TrimSpace(path) == "" {
		path = strings.TrimSpace(os.Getenv(rulesPathEnv))
	}
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultRules(), fmt.Errorf("read integrity rules: %w", err)
	}
	r, err := ParseRules(data)
	if err != nil {
		return DefaultRules(), err
	}
	return r, nil
}

func ParseRules(data []byte) (Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("parse integrity rules: %w", err)
	}
	if err := r.validate(); err != nil {
		return Rules{}, err
	}
	return r, nil
}

func (r Rules) validate() error {
	if r.OverlapThreshold <= 0 || r.OverlapThreshold >= 1 {
		return fmt.Errorf("overlap_threshold must be in (0,1), got %v", r.OverlapThreshold)
	}
	if r.MinWordLength < 0 {
		return errors.New("min_word_length must not be negative")
	}
	if len(r.AnswerRequestPatterns) == 0 {
		return errors.New("no answer_request_patterns defined")
	}
	if len(r.Keywords) == 0 {
		return errors.New("no keywords defined")
	}
	for _, p := range r.AnswerRequestPatterns {
		if _, err := regexp.Compile("(?i)" + p); err != nil {
			return fmt.Errorf("invalid pattern %q: %w", p, err)
		}
	}
	return nil
}

package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// RuleSpec is the declarative form of a rule, as written in rules.yaml.
//
//	rules:
//	  - name: tags-to-inbox
//	    when: vault.smartTags
//	    then: inbox.send
//	    params:
//	      body: '{{ join .Result ", " }}'
//
// String parameter values are templates evaluated against
// {Action, Params, Result}. A rule sets either Then (structured follow-up)
// or Text (free text re-entering the generator).
type RuleSpec struct {
	Name   string         `mapstructure:"name"`
	When   string         `mapstructure:"when"`
	If     string         `mapstructure:"if"`
	Then   string         `mapstructure:"then"`
	Params map[string]any `mapstructure:"params"`
	Text   string         `mapstructure:"text"`
}

type ruleFile struct {
	Rules []RuleSpec `mapstructure:"rules"`
}

// templateData is what rule templates see.
type templateData struct {
	Action string
	Params map[string]any
	Result any
}

var funcs = template.FuncMap{
	"join": Join,
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
	"default": func(def, v any) any {
		if v == nil {
			return def
		}
		if s, ok := v.(string); ok && s == "" {
			return def
		}
		return v
	},
}

// LoadRules reads a YAML rule file.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}
	return ParseRules(data)
}

// ParseRules compiles YAML rule definitions. Templates are parsed eagerly so
// mistakes surface at startup rather than on the first matching task.
func ParseRules(data []byte) ([]Rule, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}

	var file ruleFile
	if err := mapstructure.Decode(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to decode rules: %w", err)
	}

	rules := make([]Rule, 0, len(file.Rules))
	for i, spec := range file.Rules {
		rule, err := spec.Compile()
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, spec.Name, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Compile turns a RuleSpec into a Rule.
func (s RuleSpec) Compile() (Rule, error) {
	if s.When == "" {
		return Rule{}, fmt.Errorf(`"when" is required`)
	}
	if !domain.ValidName(s.When) {
		return Rule{}, fmt.Errorf("invalid trigger action %q", s.When)
	}
	if (s.Then == "") == (s.Text == "") {
		return Rule{}, fmt.Errorf(`exactly one of "then" or "text" is required`)
	}
	if s.Then != "" && !domain.ValidName(s.Then) {
		return Rule{}, fmt.Errorf("invalid follow-up action %q", s.Then)
	}

	name := s.Name
	if name == "" {
		name = s.When + "->" + s.Then
		if s.Then == "" {
			name = s.When + "->text"
		}
	}

	var cond *template.Template
	if s.If != "" {
		t, err := template.New(name + ":if").Funcs(funcs).Parse(s.If)
		if err != nil {
			return Rule{}, fmt.Errorf("if: %w", err)
		}
		cond = t
	}

	var text *template.Template
	if s.Text != "" {
		t, err := template.New(name + ":text").Funcs(funcs).Parse(s.Text)
		if err != nil {
			return Rule{}, fmt.Errorf("text: %w", err)
		}
		text = t
	}

	params := domain.NewParameters()
	tmpls := make(map[string]*template.Template)
	for _, key := range sortedKeys(s.Params) {
		v := s.Params[key]
		params.Set(key, v)
		str, ok := v.(string)
		if !ok || !strings.Contains(str, "{{") {
			continue
		}
		t, err := template.New(name + ":" + key).Funcs(funcs).Parse(str)
		if err != nil {
			return Rule{}, fmt.Errorf("params.%s: %w", key, err)
		}
		tmpls[key] = t
	}

	when, then := s.When, s.Then
	return Rule{
		Name: name,
		Match: func(action domain.Action, result any) bool {
			if action.Name != when {
				return false
			}
			if cond == nil {
				return true
			}
			out, err := render(cond, action, result)
			return err == nil && strings.TrimSpace(out) == "true"
		},
		Produce: func(action domain.Action, result any) (*Derived, error) {
			if text != nil {
				out, err := render(text, action, result)
				if err != nil {
					return nil, err
				}
				return &Derived{Text: out}, nil
			}
			p := params.Clone()
			for key, t := range tmpls {
				out, err := render(t, action, result)
				if err != nil {
					return nil, fmt.Errorf("params.%s: %w", key, err)
				}
				p.Set(key, out)
			}
			return &Derived{Action: &domain.Action{Name: then, Parameters: p}}, nil
		},
	}, nil
}

func render(t *template.Template, action domain.Action, result any) (string, error) {
	var buf bytes.Buffer
	err := t.Execute(&buf, templateData{
		Action: action.Name,
		Params: action.Parameters.Map(),
		Result: result,
	})
	return buf.String(), err
}

func sortedKeys(m map[string]any) []string {
	return domain.ParametersFromMap(m).Keys()
}

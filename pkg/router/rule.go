package router

import (
	"fmt"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
)

// ParamData is the parameter a transform-less Route stores the trigger's result under.
const ParamData = "data"

// Derived is what a rule produces: either free text that goes back through the
// generator and parser, or an already structured Action.
type Derived struct {
	Text   string
	Action *domain.Action
}

// Intent converts the derived value into an orchestrator intent.
func (d Derived) Intent() domain.Intent {
	if d.Action != nil {
		return domain.ActionIntent(*d.Action)
	}
	return domain.TextIntent(d.Text)
}

// Rule decides whether a completed action triggers a follow-up.
// Rules are stateless; Match and Produce may be called concurrently.
type Rule struct {
	Name string
	// Match reports whether the rule applies to the completed action and its result.
	Match func(action domain.Action, result any) bool
	// Produce returns the follow-up, or nil for none.
	Produce func(action domain.Action, result any) (*Derived, error)
}

// Route builds a rule that forwards the result of one action to another.
// transform maps the trigger's result to the parameters of the follow-up;
// without one the follow-up receives the result as {"data": result}.
func Route(from, to string, transform func(result any) domain.Parameters) Rule {
	return Rule{
		Name: from + "->" + to,
		Match: func(action domain.Action, _ any) bool {
			return action.Name == from
		},
		Produce: func(_ domain.Action, result any) (*Derived, error) {
			var params domain.Parameters
			if transform != nil {
				params = transform(result)
			} else {
				params = domain.NewParameters()
				params.Set(ParamData, result)
			}
			return &Derived{Action: &domain.Action{Name: to, Parameters: params}}, nil
		},
	}
}

// DefaultRules returns the built-in routes: smart tags are forwarded to the inbox.
func DefaultRules() []Rule {
	return []Rule{
		Route("vault.smartTags", "inbox.send", func(result any) domain.Parameters {
			p := domain.NewParameters()
			p.Set("body", Join(result, ", "))
			return p
		}),
	}
}

// Join renders a result as text: lists are joined with sep, scalars are formatted.
func Join(result any, sep string) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, sep)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, sep)
	default:
		return fmt.Sprint(v)
	}
}

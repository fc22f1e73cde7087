package domain

import (
	"regexp"
	"strings"
)

// actionNamePattern accepts "namespace.verb" or a bare verb such as "open_app".
var actionNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\.[A-Za-z][A-Za-z0-9_]*)?$`)

// Action is a parsed, dispatchable command.
type Action struct {
	Name       string     `json:"action"`
	Parameters Parameters `json:"parameters"`
}

// ValidName reports whether name has the "<namespace>.<verb>" or bare-verb shape.
func ValidName(name string) bool {
	return actionNamePattern.MatchString(name)
}

// Namespace returns the part before the dot, or "" for bare verbs.
func (a Action) Namespace() string {
	ns, _, found := strings.Cut(a.Name, ".")
	if !found {
		return ""
	}
	return ns
}

// Verb returns the part after the dot, or the whole name for bare verbs.
func (a Action) Verb() string {
	_, verb, found := strings.Cut(a.Name, ".")
	if !found {
		return a.Name
	}
	return verb
}

// Clone returns a deep copy of the action.
func (a Action) Clone() Action {
	return Action{Name: a.Name, Parameters: a.Parameters.Clone()}
}

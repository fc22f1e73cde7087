package domain

// Parameter keys with a meaning to the orchestrator itself.
const (
	// ParamApp is the application identifier carried by launch-family actions.
	ParamApp = "app"
)

// ActionOpenApp is the bare launch verb.
const ActionOpenApp = "open_app"

// IsLaunchAction reports whether name belongs to the launch family:
// "open_app", any "<ns>.open_app" or any "<ns>.launch".
func IsLaunchAction(name string) bool {
	a := Action{Name: name}
	if a.Namespace() == "" {
		return name == ActionOpenApp
	}
	verb := a.Verb()
	return verb == ActionOpenApp || verb == "launch"
}

// Package actions provides the built-in handler namespaces: vault, timeai, inbox,
// context, diagnostics and the bare open_app verb. Handlers validate their
// parameters and forward the work to the command bridge.
package actions

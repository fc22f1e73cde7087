/*
Package ports defines the driven ports (interfaces) of the Switchboard engine.

These interfaces decouple the orchestrator from the outside world: where intent text
comes from, how OS-level commands are performed, and where tasks are kept.

# Key Interfaces

  - Generator: turns free text into a stream of candidate-action fragments (e.g. a model).
  - Bridge: the privileged invoke(command, args) primitive that performs side effects.
  - TaskStore: keeps task records for the session.
  - Submitter: re-enters the orchestrator with a derived intent (used by the router).
*/
package ports

/*
Package domain contains the core types of the Switchboard engine.

It defines what an intent becomes once understood (an Action), how its execution is
tracked (a Task) and what is announced while it happens (Events). The package is kept
free of I/O so that every adapter and the orchestrator share the same vocabulary.

# Key Entities

  - Action: a "<namespace>.<verb>" name plus ordered JSON parameters.
  - Task: one per processed intent, moving pending -> running -> completed|failed.
  - Intent: raw text, a fragment stream, or a pre-parsed Action.
  - Event: a typed notification published on the bus, never stored.
*/
package domain

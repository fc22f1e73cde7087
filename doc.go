/*
Package switchboard turns free-text or model-generated intents into validated,
dispatched actions, tracks each one as a Task, and chains follow-up actions from
the results of earlier ones.

# Concept

An intent is text (or a stream of text fragments) that should contain a JSON object
of the form {"action": "<namespace>.<verb>", "parameters": {...}}. The engine extracts
the first complete object, looks the action up in a dispatch table built at startup,
runs the handler, and records the outcome. Handlers reach the operating system only
through a Command Bridge, which the host provides.

Lifecycle events (task:started, action, task:completed, task:failed, launch) are
published on an in-process bus. The router listens for completed tasks and may derive
a follow-up intent, tagged with its chain depth so loops stop at a configurable bound.

# Usage

	bridge := memory.NewBridge().Returns("copy_file", "ok")
	eng, err := switchboard.New(switchboard.WithBridge(bridge))
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	eng.On(domain.EventTaskCompleted, func(e domain.Event) {
		log.Println("done:", e.Payload.(domain.TaskEvent).TaskID)
	})

	task := eng.ProcessText(ctx, `{"action":"vault.copy","parameters":{"src":"a.txt","dest":"b.txt"}}`)
	fmt.Println(task.Status)

# Adapters

  - pkg/adapters/memory: task store and recording bridge.
  - pkg/adapters/process: allow-listed local processes as bridge commands.
  - pkg/adapters/http: REST + SSE API and a remote bridge client.
  - pkg/adapters/sqlite: queryable task store.
  - pkg/adapters/redis: relays bus events to a pub/sub channel.
  - pkg/adapters/mcp: exposes the engine as MCP tools.
  - pkg/adapters/genai: streams Gemini output into the parser.
*/
package switchboard

package runner

import (
	"fmt"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
)

// TaskMarkdown renders a task as a short markdown report.
func TaskMarkdown(task *domain.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s `%s`\n\n", title(task), task.Status)
	fmt.Fprintf(&b, "- **task:** `%s`\n", task.ID)
	if task.Chain.Depth > 0 {
		fmt.Fprintf(&b, "- **chain:** %s (depth %d)\n", task.Chain.Rule, task.Chain.Depth)
	}
	if task.Action != nil && task.Action.Parameters.Len() > 0 {
		fmt.Fprintf(&b, "- **parameters:** `%s`\n", formatResult(task.Action.Parameters))
	}
	switch {
	case task.Error != nil:
		fmt.Fprintf(&b, "\n> %s\n", task.Error.Error())
	case task.Result != nil:
		fmt.Fprintf(&b, "\n```json\n%s\n```\n", formatResult(task.Result))
	}
	return b.String()
}

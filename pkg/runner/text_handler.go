package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/muesli/termenv"
)

// TextHandler implements the REPL interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer
	Profile  termenv.Profile

	mu        sync.Mutex
	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer renders task reports as markdown.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithColorProfile enables coloured status labels. The default is termenv.Ascii.
func WithColorProfile(p termenv.Profile) TextHandlerOption {
	return func(h *TextHandler) {
		h.Profile = p
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Profile: termenv.Ascii,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines on its own goroutine so Input can honour ctx.
func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err == io.EOF {
				close(h.inputChan)
				return
			}
			h.inputChan <- inputResult{err: err}
			time.Sleep(50 * time.Millisecond)
		}
	}
}

func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			h.write("> ")
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				h.write(fmt.Sprintf("Error: %v. Please try again.\n", err))
				continue
			}
			return clean, nil
		}
	}
}

func (h *TextHandler) Output(ctx context.Context, task *domain.Task) error {
	if h.Renderer != nil {
		if rendered, err := h.Renderer(TaskMarkdown(task)); err == nil {
			h.write(strings.TrimSpace(rendered) + "\n")
			return nil
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", h.label(task.Status), title(task))
	switch {
	case task.Error != nil:
		fmt.Fprintf(&b, "  %s\n", task.Error.Error())
	case task.Result != nil:
		fmt.Fprintf(&b, "  %s\n", formatResult(task.Result))
	}
	h.write(b.String())
	return nil
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	h.write(h.Profile.String("[system] "+msg).Faint().String() + "\n")
	return nil
}

func (h *TextHandler) write(s string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fmt.Fprint(h.Writer, s)
}

func (h *TextHandler) label(status domain.TaskStatus) string {
	s := h.Profile.String("[" + string(status) + "]").Bold()
	switch status {
	case domain.TaskCompleted:
		s = s.Foreground(h.Profile.Color("#22c55e"))
	case domain.TaskFailed:
		s = s.Foreground(h.Profile.Color("#ef4444"))
	default:
		s = s.Foreground(h.Profile.Color("#eab308"))
	}
	return s.String()
}

func title(task *domain.Task) string {
	if task.Action != nil {
		return task.Action.Name
	}
	return fmt.Sprintf("%q", task.SourceText)
}

func formatResult(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

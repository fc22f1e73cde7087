package runner

import (
	"context"
	"io"
	"testing"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedHandler struct {
	answers []string
	notices []string
}

func (s *scriptedHandler) Input(context.Context) (string, error) {
	if len(s.answers) == 0 {
		return "", io.EOF
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

func (s *scriptedHandler) Output(context.Context, *domain.Task) error { return nil }

func (s *scriptedHandler) SystemOutput(_ context.Context, msg string) error {
	s.notices = append(s.notices, msg)
	return nil
}

func TestConfirmationMiddleware(t *testing.T) {
	calls := 0
	inner := registry.HandlerFunc(func(context.Context, domain.Parameters) (any, error) {
		calls++
		return "done", nil
	})

	tests := []struct {
		name    string
		action  string
		answers []string
		want    any
		denied  bool
		asked   bool
	}{
		{"Approved", "vault.copy", []string{"y"}, "done", false, true},
		{"Approved Long Form", "vault.copy", []string{" YES "}, "done", false, true},
		{"Declined", "vault.copy", []string{"n"}, nil, true, true},
		{"Unguarded", "context.get", nil, "done", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls = 0
			h := &scriptedHandler{answers: tt.answers}
			wrapped := ConfirmationMiddleware(h, Bridged)(tt.action, inner)

			res, err := wrapped.Handle(context.Background(), domain.NewParameters())
			assert.Equal(t, tt.want, res)
			if tt.denied {
				require.ErrorIs(t, err, registry.ErrDenied)
				assert.Equal(t, 0, calls)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 1, calls)
			}
			assert.Equal(t, tt.asked, len(h.notices) == 1)
		})
	}
}

func TestConfirmationMiddleware_InputError(t *testing.T) {
	inner := registry.HandlerFunc(func(context.Context, domain.Parameters) (any, error) {
		return "done", nil
	})
	wrapped := ConfirmationMiddleware(&scriptedHandler{}, nil)("anything", inner)

	_, err := wrapped.Handle(context.Background(), domain.NewParameters())
	assert.ErrorIs(t, err, io.EOF)
}

package cli

import (
	"io"
	"os"

	"github.com/aretw0/switchboard/internal/config"
)

// RunOptions contains the configuration shared by the run and exec commands.
type RunOptions struct {
	Config   *config.Config
	Version  string
	Headless bool
	JSON     bool
	// Rich enables glamour reports and coloured labels (stdout is a terminal).
	Rich   bool
	Input  io.Reader
	Output io.Writer
}

func (o RunOptions) input() io.Reader {
	if o.Input == nil {
		return os.Stdin
	}
	return o.Input
}

func (o RunOptions) output() io.Writer {
	if o.Output == nil {
		return os.Stdout
	}
	return o.Output
}

func (o RunOptions) config() *config.Config {
	if o.Config == nil {
		return config.Default()
	}
	return o.Config
}

package host

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Interface names understood by NewEnv.
const (
	ConsoleInterface = "env.console"
	CanvasInterface  = "env.canvas"
)

// Console implements env.console: every method prints the textual form of
// its arguments on one line. warn and error are prefixed with their level.
type Console struct {
	Out io.Writer
}

func (c *Console) Call(_ context.Context, call Call) (any, error) {
	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	switch call.Method {
	case "warn", "error":
		_, err := fmt.Fprintf(out, "[%s] %s\n", call.Method, call.Text())
		return nil, err
	default:
		_, err := fmt.Fprintln(out, call.Text())
		return nil, err
	}
}

// Canvas implements env.canvas. Rendering happens outside the VM; the stub
// only logs the operation name.
type Canvas struct{}

func (Canvas) Call(_ context.Context, call Call) (any, error) {
	log.Infof("canvas operation: %s", call.Method)
	return nil, nil
}

// NewEnv returns a mux with the env.console and env.canvas stubs installed.
// Console output goes to out (stdout when nil).
func NewEnv(out io.Writer) *Mux {
	return NewMux().
		Handle(ConsoleInterface, &Console{Out: out}).
		Handle(CanvasInterface, Canvas{})
}

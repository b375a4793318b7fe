// Package simulate runs n8n Code node scripts in an embedded JavaScript VM.
//
// Only the part of the Code node environment the converter's scripts touch
// is provided: $input (first, last, all, item), $json and console.log. The
// script body is wrapped in a function, as n8n does, so a top-level return
// yields the node output.
package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
)

// DefaultTimeout bounds a single script run when Runner.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// ErrTimeout is returned when a script exceeds its time budget.
var ErrTimeout = errors.New("script timed out")

const interruptTimeout = "timeout"

const prelude = `
var $input = {
  all: function () { return __items; },
  first: function () { return __items[0]; },
  last: function () { return __items[__items.length - 1]; },
  item: __items[0]
};
var $json = __items.length > 0 ? __items[0].json : undefined;
`

// Runner executes scripts. The zero value uses DefaultTimeout.
type Runner struct {
	Timeout time.Duration
}

// Result is what a script returned plus everything it logged.
type Result struct {
	Output map[string]interface{}
	Logs   []string
}

// Run executes script against items, each exposed to the script as
// {json: item}. A returned object becomes Output; any other value is wrapped
// as {"result": value}; undefined or null gives an empty Output.
func (r *Runner) Run(ctx context.Context, script string, items []map[string]interface{}) (*Result, error) {
	if strings.TrimSpace(script) == "" {
		return nil, fmt.Errorf("script cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{}
	vm := goja.New()

	wrapped := make([]interface{}, len(items))
	for i, item := range items {
		wrapped[i] = map[string]interface{}{"json": item}
	}
	if err := vm.Set("__items", wrapped); err != nil {
		return nil, fmt.Errorf("failed to set input items in JS environment: %w", err)
	}
	if err := vm.Set("console", newConsole(vm, res)); err != nil {
		return nil, fmt.Errorf("failed to set console in JS environment: %w", err)
	}
	if _, err := vm.RunString(prelude); err != nil {
		return nil, fmt.Errorf("failed to initialise JS environment: %w", err)
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	timer := time.AfterFunc(timeout, func() {
		vm.Interrupt(interruptTimeout)
	})
	defer timer.Stop()
	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()

	value, err := vm.RunString("(function () {" + script + "\n})()")
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			if interrupted.Value() == interruptTimeout {
				return nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
		}
		return nil, fmt.Errorf("JavaScript execution error: %w", err)
	}

	res.Output = exportOutput(value)
	return res, nil
}

func exportOutput(value goja.Value) map[string]interface{} {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return map[string]interface{}{}
	}
	switch v := value.Export().(type) {
	case map[string]interface{}:
		return v
	case nil:
		return map[string]interface{}{}
	default:
		return map[string]interface{}{"result": v}
	}
}

// newConsole returns a console object whose log, info, warn and error all
// append one line per call to res.Logs.
func newConsole(vm *goja.Runtime, res *Result) *goja.Object {
	record := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, formatArg(arg))
		}
		res.Logs = append(res.Logs, strings.Join(parts, " "))
		return goja.Undefined()
	}

	console := vm.NewObject()
	for _, name := range []string{"log", "info", "warn", "error"} {
		_ = console.Set(name, record)
	}
	return console
}

func formatArg(arg goja.Value) string {
	if arg == nil || goja.IsUndefined(arg) {
		return "undefined"
	}
	if goja.IsNull(arg) {
		return "null"
	}
	switch v := arg.Export().(type) {
	case string:
		return v
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(v)
		if err != nil {
			return arg.String()
		}
		return string(b)
	default:
		return arg.String()
	}
}

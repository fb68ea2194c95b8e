package stdlib

import (
	"fmt"
	"time"

	"github.com/lemonberrylabs/tscript/pkg/types"
)

// registerTime registers time.* functions.
func (r *Registry) registerTime() {
	r.Register("time.now", timeNow)
	r.Register("time.clock", timeClock)
	r.Register("time.hours", timeHours)
	r.Register("time.format", timeFormat)
}

// now is swapped out by tests.
var now = time.Now

func timeNow(args []types.Value) (types.Value, error) {
	if err := requireArgs("time.now", args, 0, 0); err != nil {
		return types.Null, err
	}
	return types.NewTime(now().UTC()), nil
}

// timeClock builds a time of day, the same value a 12:30 literal produces.
func timeClock(args []types.Value) (types.Value, error) {
	if err := requireArgs("time.clock", args, 2, 2); err != nil {
		return types.Null, err
	}
	h, m := args[0].Unwrap(), args[1].Unwrap()
	if h.Type() != types.TypeInt || m.Type() != types.TypeInt {
		return types.Null, types.NewTypeError("time.clock expects (int, int)")
	}
	if h.AsInt() < 0 || h.AsInt() > 23 || m.AsInt() < 0 || m.AsInt() > 59 {
		return types.Null, types.NewValueError(
			fmt.Sprintf("time.clock: %d:%02d is not a time of day", h.AsInt(), m.AsInt()))
	}
	return types.NewTime(time.Date(0, 1, 1, int(h.AsInt()), int(m.AsInt()), 0, 0, time.UTC)), nil
}

func timeHours(args []types.Value) (types.Value, error) {
	if err := requireArgs("time.hours", args, 1, 1); err != nil {
		return types.Null, err
	}
	d := args[0].Unwrap()
	if d.Type() != types.TypeDuration {
		return types.Null, types.NewTypeError("time.hours requires a duration argument")
	}
	return types.NewFloat(d.AsDuration().Hours()), nil
}

// timeFormat is time.format(t) or time.format(t, layout) with a Go layout.
func timeFormat(args []types.Value) (types.Value, error) {
	if err := requireArgs("time.format", args, 1, 2); err != nil {
		return types.Null, err
	}
	t := args[0].Unwrap()
	if t.Type() != types.TypeTime {
		return types.Null, types.NewTypeError("time.format: first argument must be a time")
	}
	layout := time.RFC3339
	if len(args) == 2 {
		if args[1].Type() != types.TypeString {
			return types.Null, types.NewTypeError("time.format: layout must be a string")
		}
		layout = args[1].AsString()
	}
	return types.NewString(t.AsTime().Format(layout)), nil
}

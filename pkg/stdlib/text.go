package stdlib

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lemonberrylabs/tscript/pkg/types"
)

// registerText registers text.* functions.
func (r *Registry) registerText() {
	r.Register("text.match_regex", textMatchRegex)
	r.Register("text.replace_all", textReplaceAll)
	r.Register("text.split", textSplit)
	r.Register("text.substring", textSubstring)
	r.Register("text.to_lower", caseFunc("text.to_lower", func() cases.Caser { return cases.Lower(language.Und) }))
	r.Register("text.to_upper", caseFunc("text.to_upper", func() cases.Caser { return cases.Upper(language.Und) }))
	r.Register("text.title", caseFunc("text.title", func() cases.Caser { return cases.Title(language.Und) }))
}

// strArgs checks arity and that every argument is a string.
func strArgs(name string, args []types.Value, n int) ([]string, error) {
	if err := requireArgs(name, args, n, n); err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i, a := range args {
		a = a.Unwrap()
		if a.Type() != types.TypeString {
			return nil, types.NewTypeError(
				fmt.Sprintf("%s: argument %d must be a string, got %s", name, i+1, a.Type()))
		}
		out[i] = a.AsString()
	}
	return out, nil
}

// caseFunc builds a caser per call; a Caser is not safe for concurrent use.
func caseFunc(name string, newCaser func() cases.Caser) StdlibFunc {
	return func(args []types.Value) (types.Value, error) {
		s, err := strArgs(name, args, 1)
		if err != nil {
			return types.Null, err
		}
		c := newCaser()
		return types.NewString(c.String(s[0])), nil
	}
}

func textMatchRegex(args []types.Value) (types.Value, error) {
	s, err := strArgs("text.match_regex", args, 2)
	if err != nil {
		return types.Null, err
	}
	re, err := regexp.Compile(s[1])
	if err != nil {
		return types.Null, types.NewValueError(fmt.Sprintf("text.match_regex: invalid pattern: %v", err))
	}
	return types.NewBool(re.MatchString(s[0])), nil
}

func textReplaceAll(args []types.Value) (types.Value, error) {
	s, err := strArgs("text.replace_all", args, 3)
	if err != nil {
		return types.Null, err
	}
	return types.NewString(strings.ReplaceAll(s[0], s[1], s[2])), nil
}

func textSplit(args []types.Value) (types.Value, error) {
	s, err := strArgs("text.split", args, 2)
	if err != nil {
		return types.Null, err
	}
	parts := strings.Split(s[0], s[1])
	result := make([]types.Value, len(parts))
	for i, p := range parts {
		result[i] = types.NewString(p)
	}
	return types.NewList(result), nil
}

// textSubstring is text.substring(s, start, end) over characters, end
// exclusive. Bounds are clamped.
func textSubstring(args []types.Value) (types.Value, error) {
	if err := requireArgs("text.substring", args, 3, 3); err != nil {
		return types.Null, err
	}
	src, start, end := args[0].Unwrap(), args[1].Unwrap(), args[2].Unwrap()
	if src.Type() != types.TypeString || start.Type() != types.TypeInt || end.Type() != types.TypeInt {
		return types.Null, types.NewTypeError("text.substring expects (str, int, int)")
	}
	runes := []rune(src.AsString())
	clamp := func(i int64) int {
		switch {
		case i < 0:
			return 0
		case i > int64(len(runes)):
			return len(runes)
		}
		return int(i)
	}
	from, to := clamp(start.AsInt()), clamp(end.AsInt())
	if from >= to {
		return types.NewString(""), nil
	}
	return types.NewString(string(runes[from:to])), nil
}

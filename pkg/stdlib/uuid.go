package stdlib

import (
	"github.com/google/uuid"

	"github.com/lemonberrylabs/tscript/pkg/types"
)

// registerUUID registers uuid.* functions.
func (r *Registry) registerUUID() {
	r.Register("uuid.generate", uuidGenerate)
}

func uuidGenerate(args []types.Value) (types.Value, error) {
	if err := requireArgs("uuid.generate", args, 0, 0); err != nil {
		return types.Null, err
	}
	return types.NewString(uuid.NewString()), nil
}

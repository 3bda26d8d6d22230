//go:build tinygo || !cgo

package glptaux

import (
	"errors"

	"github.com/soypat/glpt"
)

func ui(scene glpt.Scene, cfg UIConfig) error {
	return errors.New("require cgo for UI rendering")
}

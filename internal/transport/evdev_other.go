//go:build !linux

package transport

import (
	"errors"
	"os"
)

func openInput(name string) (*os.File, error) {
	return nil, errors.New("input devices are only supported on linux: " + name)
}

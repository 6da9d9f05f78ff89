//go:build linux

package transport

import (
	"os"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// EVIOCGRAB = _IOW('E', 0x90, int)
const evioCGrab = 0x40044590

func openInput(name string) (*os.File, error) {
	fd, err := unix.Open(name, unix.O_RDONLY|unix.O_CLOEXEC|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, err
	}
	if err := unix.IoctlSetInt(fd, evioCGrab, 1); err != nil {
		log.Debugf("cannot grab %s: %v", name, err)
	}
	// a non-blocking fd makes the file pollable, so read deadlines apply
	return os.NewFile(uintptr(fd), name), nil
}

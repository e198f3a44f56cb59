//go:build linux

package keymap

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// NewFile returns a sealed memfd holding text followed by a NUL byte, ready to
// be passed to the virtual keyboard. size is the length of text.
func NewFile(text string) (f *os.File, size uint32, err error) {
	fd, err := unix.MemfdCreate("osk-keymap", unix.MFD_CLOEXEC|unix.MFD_ALLOW_SEALING)
	if err != nil {
		return nil, 0, fmt.Errorf("memfd_create: %w", err)
	}
	f = os.NewFile(uintptr(fd), "osk-keymap")
	if _, err := f.WriteString(text + "\x00"); err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("write keymap: %w", err)
	}
	seals := unix.F_SEAL_SHRINK | unix.F_SEAL_GROW | unix.F_SEAL_WRITE | unix.F_SEAL_SEAL
	if _, err := unix.FcntlInt(f.Fd(), unix.F_ADD_SEALS, seals); err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("seal keymap: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("rewind keymap: %w", err)
	}
	return f, uint32(len(text)), nil
}

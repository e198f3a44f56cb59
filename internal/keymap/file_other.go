//go:build !linux

package keymap

import (
	"fmt"
	"os"
)

// NewFile returns an unlinked temporary file holding text followed by a NUL
// byte. size is the length of text.
func NewFile(text string) (f *os.File, size uint32, err error) {
	f, err = os.CreateTemp("", "osk-keymap-*")
	if err != nil {
		return nil, 0, fmt.Errorf("create keymap file: %w", err)
	}
	os.Remove(f.Name())
	if _, err := f.WriteString(text + "\x00"); err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("write keymap: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("rewind keymap: %w", err)
	}
	return f, uint32(len(text)), nil
}

//go:build darwin

package index

import "golang.org/x/sys/unix"

// set by `chflags hidden`
const ufHidden = 0x8000

func isHidden(path string) (bool, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return false, err
	}
	return st.Flags&ufHidden != 0, nil
}

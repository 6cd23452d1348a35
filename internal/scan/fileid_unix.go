//go:build unix

package scan

import (
	"os"
	"syscall"
)

// fileID identifies a file across paths so hard links and symlink cycles
// are visited once.
type fileID struct {
	dev uint64
	ino uint64
}

func identityOf(fi os.FileInfo) (fileID, bool) {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return fileID{}, false
	}
	return fileID{dev: uint64(st.Dev), ino: uint64(st.Ino)}, true
}

//go:build linux

package report

import (
	"os"
	"syscall"
	"time"
)

// changeTime returns the inode change time, the closest Linux equivalent of
// a creation time.
func changeTime(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Ctim.Unix())
	}
	return info.ModTime()
}

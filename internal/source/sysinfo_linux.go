//go:build linux

package source

import "golang.org/x/sys/unix"

// systemMemory samples available and total memory via sysinfo(2).
// Buffers count as available: the kernel reclaims them before failing an
// allocation.
func systemMemory() (avail, total uint64, err error) {
	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err != nil {
		return 0, 0, err
	}
	unit := uint64(si.Unit)
	if unit == 0 {
		unit = 1
	}
	avail = (uint64(si.Freeram) + uint64(si.Bufferram)) * unit
	total = uint64(si.Totalram) * unit
	return avail, total, nil
}

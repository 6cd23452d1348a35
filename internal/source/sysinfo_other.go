//go:build !linux

package source

// systemMemory has no cheap portable implementation outside Linux. The
// stub reports half the address space as available, which keeps the
// derived level at Low; the mapping-count budget still bounds the pool.
func systemMemory() (avail, total uint64, err error) {
	const stub = 1 << 40
	return stub / 2, stub, nil
}

//go:build (linux || darwin) && amd64

package jit

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func pageAlign(n int) int {
	page := unix.Getpagesize()
	return (n + page - 1) &^ (page - 1)
}

// mapData allocates zeroed read-write memory outside the Go heap.
func mapData(size int) ([]byte, error) {
	mem, err := unix.Mmap(-1, 0, pageAlign(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}
	return mem, nil
}

// mapCode copies code into fresh memory and makes it read-execute.
func mapCode(code []byte) ([]byte, error) {
	mem, err := mapData(len(code))
	if err != nil {
		return nil, err
	}
	copy(mem, code)
	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		unix.Munmap(mem)
		return nil, fmt.Errorf("mprotect: %w", err)
	}
	return mem, nil
}

func unmap(mem []byte) error {
	if mem == nil {
		return nil
	}
	return unix.Munmap(mem)
}

// mapStack allocates a stack of at least size bytes with an inaccessible
// guard page below it. The whole mapping is returned for unmap.
func mapStack(size int) ([]byte, error) {
	guard := unix.Getpagesize()
	mem, err := mapData(guard + size)
	if err != nil {
		return nil, err
	}
	if err := unix.Mprotect(mem[:guard], unix.PROT_NONE); err != nil {
		unix.Munmap(mem)
		return nil, fmt.Errorf("mprotect guard page: %w", err)
	}
	return mem, nil
}

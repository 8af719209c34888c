package stree

import "os"

import "golang.org/x/sys/unix"


//============================================= Stree MMap


// MMap
//	The byte array representation of the memory mapped file in memory.
type MMap []byte

const (
	// RDONLY: maps the memory read-only. Attempts to write to the MMap object will result in undefined behavior.
	RDONLY = 0
	// RDWR: maps the memory as read-write. Writes to the MMap object will update the underlying file.
	RDWR = 1 << iota
	// COPY: maps the memory as copy-on-write. Writes to the MMap object will affect memory, but the underlying file will remain unchanged.
	COPY
	// EXEC: marks the mapped memory as executable.
	EXEC
)

// Map
//	Memory map the provided file with the provided protection flags.
//	The entire file is mapped, so callers grow the file before remapping.
func Map(file *os.File, prot int) (MMap, error) {
	stat, statErr := file.Stat()
	if statErr != nil { return nil, statErr }

	size := stat.Size()
	if size == 0 { return MMap{}, nil }

	flags := unix.MAP_SHARED
	mprot := unix.PROT_READ

	switch {
		case prot & COPY != 0:
			mprot |= unix.PROT_WRITE
			flags = unix.MAP_PRIVATE
		case prot & RDWR != 0:
			mprot |= unix.PROT_WRITE
	}

	if prot & EXEC != 0 { mprot |= unix.PROT_EXEC }

	data, mmapErr := unix.Mmap(int(file.Fd()), 0, int(size), mprot, flags)
	if mmapErr != nil { return nil, mmapErr }

	return MMap(data), nil
}

// Unmap
//	Unmaps the memory map from RAM.
func (mMap MMap) Unmap() error {
	if len(mMap) == 0 { return nil }
	return unix.Munmap([]byte(mMap))
}

// Flush
//	Synchronously flush the mapped region to the backing file.
func (mMap MMap) Flush() error {
	if len(mMap) == 0 { return nil }
	return unix.Msync([]byte(mMap), unix.MS_SYNC)
}

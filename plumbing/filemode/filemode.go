// Package filemode holds the git file-mode bits git uses in tree
// entries, and the handful of conversions to and from os.FileMode that
// a tree builder or checkout path needs.
package filemode

import (
	"fmt"
	"os"
	"strconv"
)

// FileMode represents the git file mode bits stored in a tree entry.
type FileMode uint32

const (
	// Empty represents the zero file mode, used for entries with no
	// git equivalent (sockets, devices, ...) and the result of a
	// failed parse.
	Empty FileMode = 0
	// Dir is a tree entry pointing at a subtree.
	Dir FileMode = 0o040000
	// Regular is a non-executable, non-symlink file.
	Regular FileMode = 0o100644
	// Deprecated is an alternate non-executable file mode, accepted on
	// read but never produced by go-corelib.
	Deprecated FileMode = 0o100664
	// Executable is an executable file.
	Executable FileMode = 0o100755
	// Symlink is a symbolic link.
	Symlink FileMode = 0o120000
	// Submodule is a gitlink entry pointing at another repository's
	// commit.
	Submodule FileMode = 0o160000
)

// New parses the octal textual representation of a FileMode, as found
// in tree object records and in the output of commands like
// `git diff-tree`.
func New(s string) (FileMode, error) {
	fm, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return Empty, fmt.Errorf("filemode: malformed mode %q: %w", s, err)
	}
	return FileMode(fm), nil
}

// NewFromOSFileMode converts an os.FileMode into the closest git
// FileMode. Bits with no git equivalent (devices, sockets, named
// pipes, temporary files, ...) return an error alongside Empty.
func NewFromOSFileMode(m os.FileMode) (FileMode, error) {
	if m.IsDir() {
		return Dir, nil
	}

	if m&os.ModeSymlink != 0 {
		return Symlink, nil
	}

	switch {
	case m&os.ModeDevice != 0,
		m&os.ModeNamedPipe != 0,
		m&os.ModeSocket != 0,
		m&os.ModeCharDevice != 0,
		m&os.ModeTemporary != 0:
		return Empty, fmt.Errorf("filemode: no equivalent git mode for %s", m)
	}

	if isExecutable(m) {
		return Executable, nil
	}

	return Regular, nil
}

func isExecutable(m os.FileMode) bool {
	return m&0o111 != 0
}

// Bytes returns the little-endian uint32 encoding of m, as used by the
// tree object codification in some tooling output.
func (m FileMode) Bytes() []byte {
	return []byte{
		byte(m),
		byte(m >> 8),
		byte(m >> 16),
		byte(m >> 24),
	}
}

// String returns the zero-padded 7-digit octal representation of m, as
// it appears in a tree object record.
func (m FileMode) String() string {
	return fmt.Sprintf("%07o", uint32(m))
}

// IsMalformed reports whether m does not match any of the known git
// file modes.
func (m FileMode) IsMalformed() bool {
	switch m {
	case Dir, Regular, Deprecated, Executable, Symlink, Submodule:
		return false
	default:
		return true
	}
}

// ToOSFileMode returns the os.FileMode used to create a file system
// element for m, or os.FileMode(0) and an error for a malformed mode.
func (m FileMode) ToOSFileMode() (os.FileMode, error) {
	switch m {
	case Dir, Submodule:
		return os.ModePerm | os.ModeDir, nil
	case Regular, Deprecated:
		return os.FileMode(0o644), nil
	case Executable:
		return os.FileMode(0o755), nil
	case Symlink:
		return os.ModePerm | os.ModeSymlink, nil
	}
	return os.FileMode(0), fmt.Errorf("filemode: malformed mode %s", m)
}

// IsDir reports whether m is a subtree entry. Tree sort order appends
// a synthetic '/' to directory names precisely because of this bit.
func (m FileMode) IsDir() bool {
	return m == Dir
}

// IsRegular reports whether m is a plain, non-executable file.
func (m FileMode) IsRegular() bool {
	return m == Regular || m == Deprecated
}

// IsFile reports whether m is any kind of file content entry (regular,
// executable or symlink), as opposed to a subtree or submodule.
func (m FileMode) IsFile() bool {
	return m == Regular || m == Deprecated || m == Executable || m == Symlink
}

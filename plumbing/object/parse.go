package object

import (
	"bufio"
	"fmt"
	"io"

	"github.com/go-corelib/gitcore/plumbing"
	"github.com/go-corelib/gitcore/plumbing/filemode"
)

// DecodeTree decodes the canonical on-disk tree format: a
// concatenation of records `<octal-mode> SP <name-bytes> NUL
// <20-byte-id>`. Names contain no '/' and no NUL. Entries are expected
// to already be in git tree order; DecodeTree does not re-sort them.
func DecodeTree(r io.Reader) ([]TreeEntry, error) {
	br := bufio.NewReader(r)

	var entries []TreeEntry
	for {
		modeBytes, err := br.ReadBytes(' ')
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading mode: %w", err)
		}
		mode, err := filemode.New(string(modeBytes[:len(modeBytes)-1]))
		if err != nil {
			return nil, fmt.Errorf("parsing mode: %w", err)
		}

		name, err := br.ReadBytes(0)
		if err != nil {
			return nil, fmt.Errorf("reading name: %w", err)
		}
		name = name[:len(name)-1]

		var id plumbing.Hash
		if _, err := io.ReadFull(br, id[:]); err != nil {
			return nil, fmt.Errorf("reading id: %w", err)
		}

		entries = append(entries, TreeEntry{
			Name: string(name),
			Mode: mode,
			Hash: id,
		})
	}
}

// EncodeTree encodes entries in the canonical on-disk tree format.
// Entries must already be in git tree order.
func EncodeTree(w io.Writer, entries []TreeEntry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%o %s\x00", uint32(e.Mode), e.Name); err != nil {
			return err
		}
		if _, err := w.Write(e.Hash[:]); err != nil {
			return err
		}
	}
	return nil
}

package object

import (
	"bytes"
	"testing"
	"time"

	"github.com/go-corelib/gitcore/plumbing"
	"github.com/go-corelib/gitcore/plumbing/filemode"
	"github.com/stretchr/testify/require"
)

func TestDecodeTreeRoundTrip(t *testing.T) {
	entries := []TreeEntry{
		{Name: "a", Mode: filemode.Regular, Hash: plumbing.NewHash("0000000000000000000000000000000000000001")},
		{Name: "b", Mode: filemode.Dir, Hash: plumbing.NewHash("0000000000000000000000000000000000000002")},
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeTree(&buf, entries))

	got, err := DecodeTree(&buf)
	require.NoError(t, err)
	require.Equal(t, entries, got)
}

func TestDecodeTreeEmpty(t *testing.T) {
	got, err := DecodeTree(bytes.NewReader(nil))
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestDecodeCommitRoundTrip(t *testing.T) {
	c := &Commit{
		TreeHash: plumbing.NewHash("0000000000000000000000000000000000000001"),
		Parents: []plumbing.Hash{
			plumbing.NewHash("0000000000000000000000000000000000000002"),
			plumbing.NewHash("0000000000000000000000000000000000000003"),
		},
		Author:    Signature{Name: "A", Email: "a@example.com", When: time.Unix(1000, 0).UTC()},
		Committer: Signature{Name: "A", Email: "a@example.com", When: time.Unix(1001, 0).UTC()},
		Message:   "hello\n",
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeCommit(&buf, c))

	got, err := DecodeCommit(&buf)
	require.NoError(t, err)
	require.Equal(t, c.TreeHash, got.TreeHash)
	require.Equal(t, c.Parents, got.Parents)
	require.Equal(t, c.Author.Email, got.Author.Email)
	require.True(t, c.Committer.When.Equal(got.Committer.When))
	require.Equal(t, c.Message, got.Message)
	require.Equal(t, 2, got.NumParents())
}

func TestCommitFlags(t *testing.T) {
	c := &Commit{}
	require.False(t, c.HasFlag(FlagSeen))

	c.SetFlag(FlagSeen)
	c.SetFlag(FlagUninteresting)
	require.True(t, c.HasFlag(FlagSeen))
	require.True(t, c.HasFlag(FlagUninteresting))

	c.ClearFlag(FlagSeen)
	require.False(t, c.HasFlag(FlagSeen))
	require.True(t, c.HasFlag(FlagUninteresting))
}

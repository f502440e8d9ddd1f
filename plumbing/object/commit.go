package object

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-corelib/gitcore/plumbing"
)

// ParseState tracks how much of a Commit has been decoded. The
// revision walker only needs headers (parents, timestamp) for most
// pipeline phases, but GetCommit always decodes a commit in full, so
// nothing is deferred.
type ParseState uint8

const (
	Unparsed ParseState = iota
	HeadersParsed
	FullyParsed
)

// Flag bits carried by a Commit as it passes through a revision walker
// pipeline. They are walker state, not part of the object's identity.
type Flag uint32

const (
	FlagSeen Flag = 1 << iota
	FlagParsed
	FlagUninteresting
	FlagRewrite
	FlagBoundary
	FlagTopoDelay
	FlagAddedToPending
)

// Commit is a revision commit node: identity, parse state, parents,
// commit timestamp and the walker-owned Flags bitfield used by the
// specification.
type Commit struct {
	Hash      plumbing.Hash
	State     ParseState
	Parents   []plumbing.Hash
	TreeHash  plumbing.Hash
	Author    Signature
	Committer Signature
	Message   string
	Flags     Flag

	// inDegree counts how many already-visited commits name this one
	// as a parent; the topological-sort generator decrements it as it
	// emits children and only releases a commit once it reaches zero.
	inDegree int
}

// Signature is a commit's author or committer line.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// NumParents returns the number of parent commits.
func (c *Commit) NumParents() int {
	return len(c.Parents)
}

// InDegree returns the topological-sort generator's bookkeeping count
// of how many already-visited commits in its buffered set name c as a
// parent.
func (c *Commit) InDegree() int { return c.inDegree }

// SetInDegree overwrites the topological-sort generator's in-degree
// count for c.
func (c *Commit) SetInDegree(n int) { c.inDegree = n }

// HasFlag reports whether all bits of f are set on c.
func (c *Commit) HasFlag(f Flag) bool {
	return c.Flags&f == f
}

// SetFlag sets the bits of f on c.
func (c *Commit) SetFlag(f Flag) {
	c.Flags |= f
}

// ClearFlag clears the bits of f on c.
func (c *Commit) ClearFlag(f Flag) {
	c.Flags &^= f
}

// CommitTime returns the committer timestamp, the field COMMIT_TIME_DESC
// and the date-ordered revision queue sort on.
func (c *Commit) CommitTime() time.Time {
	return c.Committer.When
}

// Tree opens and decodes this commit's tree object.
func (c *Commit) Tree(db plumbing.ObjectDatabase) (*Tree, error) {
	return GetTree(db, c.TreeHash)
}

// GetCommit opens and decodes the commit object identified by id. The
// returned Commit has State == FullyParsed; the revision walker only
// promotes commits straight to FullyParsed today (no lazy header-only
// path into storage), but callers and generators still gate work on
// State so that a future lazy-header object source can be introduced
// without changing callers.
func GetCommit(db plumbing.ObjectDatabase, id plumbing.Hash) (*Commit, error) {
	typ, _, r, err := db.Open(id)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if typ != plumbing.CommitObject {
		return nil, plumbing.ErrIncorrectObjectType
	}

	c, err := DecodeCommit(r)
	if err != nil {
		return nil, plumbing.NewCorruptObjectError(id, err)
	}
	c.Hash = id
	return c, nil
}

// DecodeCommit decodes the canonical commit object text format:
// a "tree", zero or more "parent", an "author" and a "committer"
// header line, a blank line, then the free-form message.
func DecodeCommit(r io.Reader) (*Commit, error) {
	c := &Commit{State: FullyParsed}

	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		line = strings.TrimSuffix(line, "\n")

		if line == "" {
			break
		}

		key, rest, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("malformed commit header line %q", line)
		}

		switch key {
		case "tree":
			h, err := plumbing.ParseHash(rest)
			if err != nil {
				return nil, fmt.Errorf("parsing tree header: %w", err)
			}
			c.TreeHash = h
		case "parent":
			h, err := plumbing.ParseHash(rest)
			if err != nil {
				return nil, fmt.Errorf("parsing parent header: %w", err)
			}
			c.Parents = append(c.Parents, h)
		case "author":
			sig, err := parseSignature(rest)
			if err != nil {
				return nil, fmt.Errorf("parsing author header: %w", err)
			}
			c.Author = sig
		case "committer":
			sig, err := parseSignature(rest)
			if err != nil {
				return nil, fmt.Errorf("parsing committer header: %w", err)
			}
			c.Committer = sig
		}

		if err == io.EOF {
			break
		}
	}

	msg, err := io.ReadAll(br)
	if err != nil {
		return nil, err
	}
	c.Message = string(msg)

	return c, nil
}

// parseSignature parses "Name <email> seconds tzoffset", the trailer
// every author/committer header line ends with.
func parseSignature(s string) (Signature, error) {
	var sig Signature

	lt := strings.LastIndexByte(s, '<')
	gt := strings.LastIndexByte(s, '>')
	if lt < 0 || gt < 0 || gt < lt {
		return sig, fmt.Errorf("malformed signature %q", s)
	}

	sig.Name = strings.TrimSpace(s[:lt])
	sig.Email = s[lt+1 : gt]

	fields := strings.Fields(strings.TrimSpace(s[gt+1:]))
	if len(fields) == 0 {
		return sig, nil
	}

	secs, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return sig, fmt.Errorf("parsing timestamp: %w", err)
	}
	sig.When = time.Unix(secs, 0).UTC()

	return sig, nil
}

// EncodeCommit is the inverse of DecodeCommit, used by tests to build
// synthetic commit objects without a real pack.
func EncodeCommit(w io.Writer, c *Commit) error {
	if _, err := fmt.Fprintf(w, "tree %s\n", c.TreeHash); err != nil {
		return err
	}
	for _, p := range c.Parents {
		if _, err := fmt.Fprintf(w, "parent %s\n", p); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "author %s <%s> %d +0000\n", c.Author.Name, c.Author.Email, c.Author.When.Unix()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "committer %s <%s> %d +0000\n\n", c.Committer.Name, c.Committer.Email, c.Committer.When.Unix()); err != nil {
		return err
	}
	_, err := io.WriteString(w, c.Message)
	return err
}

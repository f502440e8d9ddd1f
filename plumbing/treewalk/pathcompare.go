package treewalk

// treeByteAt returns the byte of s at index i as an int, appending a
// synthetic '/' at index len(s) when isTree is true — the convention
// that makes directory names sort immediately after any sibling file
// sharing their prefix, matching git's canonical tree order.
func treeByteAt(s []byte, isTree bool, i int) int {
	if i < len(s) {
		return int(s[i])
	}
	if i == len(s) && isTree {
		return int('/')
	}
	return -1
}

// PathCompare orders a and b under git's canonical tree sort: raw
// path bytes with a synthetic '/' conceptually appended to directory
// names. Exported so other entry-name sorters (e.g.
// plumbing/dirindex's directory/file merge) can order names the same
// way tree objects already do, rather than falling back to a plain
// byte-string compare that disagrees with it whenever one name is a
// proper prefix of a sibling's.
func PathCompare(a []byte, aIsTree bool, b []byte, bIsTree bool) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	if aIsTree {
		n++
	}
	if bIsTree {
		n++
	}
	for i := 0; i < n; i++ {
		ca := treeByteAt(a, aIsTree, i)
		cb := treeByteAt(b, bIsTree, i)
		if ca != cb {
			return ca - cb
		}
		if ca == -1 {
			break
		}
	}
	return 0
}

// PathPrefixCompare is a byte-level
// comparison between a current path (with a synthetic '/' appended
// when it names a directory) and a candidate prefix. It returns
// negative if path sorts before prefix, zero if prefix matches
// (either exactly or at a directory boundary), positive if path has
// passed prefix forever. Used by filters to prune branches without
// allocating strings.
func PathPrefixCompare(path []byte, pathIsTree bool, prefix []byte) int {
	n := len(prefix)
	if len(path) < n {
		n = len(path)
	}
	for i := 0; i < n; i++ {
		if path[i] != prefix[i] {
			return int(path[i]) - int(prefix[i])
		}
	}
	switch {
	case len(path) == len(prefix):
		return 0
	case len(path) > len(prefix):
		// path continues past prefix: a match only at a directory
		// boundary; otherwise the next byte, compared with '/', says
		// whether path sorts before prefix or has passed it forever.
		return int(path[len(prefix)]) - int('/')
	default:
		// path is a strict, shorter prefix of prefix: when path names
		// a directory, its synthetic '/' is compared with the next
		// byte of prefix; a plain file sorts before prefix.
		if pathIsTree {
			return int('/') - int(prefix[len(path)])
		}
		return -1
	}
}

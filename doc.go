/*

Bindle is the storage engine of a version-control tool for large
binary working trees: a content-addressed, deduplicating object
database together with the commit, tree, and reference records it
persists.

Vocabulary:

- object/blob: immutable file content stored under its own content hash
- hash: cryptographic content hash, hex encoded
- algo: name (string) describing hash algorithm
- shard: two-character hash prefix segments inserted into object paths
	in order to keep directory sizes small
- hash block: {start, end, hash} record for one chunk of a file,
	stored in an .hblock sidecar beside the blob
- tree: recursive snapshot of a file hierarchy; directory nodes own
	ordered children, file leaves point at content hashes
- commit: immutable record of one root tree, parent commit hashes,
	and metadata; content-addressed by its own hash
- reference: mutable named pointer to a commit (a branch), or the
	detached-HEAD sentinel
- dedup: storing identical content exactly once, identified by equal
	content hashes

On-disk layout, relative to the metadata root:

	config                        versioned configuration record
	objects/<h0:2>/<h2:4>/<hash>  blob content, plus optional .hblock sidecar
	versions/<commit-hash>        one file per commit
	refs/<branch>                 one file per branch
	HEAD                          branch name, or commit hash when detached
	tmp/                          scratch area for in-flight object writes

*/

package bindle

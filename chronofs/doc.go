// Package chronofs implements the FUSE layer of the chronofs daemon.
//
// The filesystem is a passthrough over a backing working-copy directory.
// The backing directory holds the real bytes; the mount's job is
// observation. Every create, write, remove and rename that passes
// through it is recorded into the change journal, so watchers can ask
// "what changed since sequence N" instead of rescanning the tree.
//
// Written content is hashed and staged into a content-addressed work
// directory (.work) under the backing dir. The per-path content hash lets
// Flush detect rewrites that did not actually change anything and skip the
// journal record for them.
//
// Checkout records a snapshot-hash transition in the journal, carrying the
// set of paths modified through the mount since the previous checkout as
// unclean paths.
//
// The main entry point is NewFS(), which creates an instance that can be
// mounted using the bazil.org/fuse library.
package chronofs

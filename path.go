package mirrorfs

import "syscall"

// childHostPath maps name to its host path under parent: the parent's host
// path, one separator, the name, verbatim. No segment is cleaned, resolved,
// or deduplicated. A parent whose path record is gone cannot map children;
// that is a caller fault, not an I/O failure.
func childHostPath(parent *nodeState, name string) (string, error) {
	if parent.hostPath == "" {
		return "", syscall.EFAULT
	}
	return parent.hostPath + "/" + name, nil
}

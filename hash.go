package mirrorfs

import "encoding/binary"

// identityHash folds a host inode into a virtual inode number, seeded with
// the host device id so equal inodes on distinct host filesystems diverge.
// Rolling sdbm-style accumulator over the inode's little-endian bytes;
// collisions across host (device, inode) pairs are accepted, not detected.
func identityHash(dev uint64, ino uint64) uint64 {
	var raw [8]byte
	binary.LittleEndian.PutUint64(raw[:], ino)

	hash := dev
	for _, b := range raw {
		hash = uint64(b) + (hash << 6) + (hash << 16) - hash
	}
	return hash
}

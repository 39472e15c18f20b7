package util

import (
	"sync"
)

var (
	highestInode uint64 = 1 // inode 1 is the mount root
	// could use atomic package for better performance, but this is simpler
	inodeLock = sync.Mutex{}
)

// GetNewInode allocates the next unused inode number.
func GetNewInode() uint64 {
	inodeLock.Lock()
	defer inodeLock.Unlock()
	highestInode++
	return highestInode
}

// SetInode raises the allocation floor so future inodes stay above an
// externally observed inode number. Lower values are ignored.
func SetInode(inode uint64) {
	inodeLock.Lock()
	defer inodeLock.Unlock()
	if inode > highestInode {
		highestInode = inode
	}
}

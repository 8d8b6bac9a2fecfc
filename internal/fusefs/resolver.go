package fusefs

import (
	"blockfs/internal/store"
)

// findByIno locates the entity whose identifier is ino by walking the
// whole tree from the root. This is the slow path for requests that carry
// no parent hint. The walk is iterative with an explicit work stack and a
// visited set, so deep trees cannot blow the call stack and a corrupted
// image with a directory cycle cannot loop forever.
func (s *Session) findByIno(ino uint64) (store.Entity, bool) {
	root, err := s.store.Root()
	if err != nil {
		s.log.WithError(err).Warn("failed to load root for inode resolution")
		return store.Entity{}, false
	}
	if ino == rootIno || ino == root.StartBlock {
		return root, true
	}

	stack := []uint64{root.StartBlock}
	visited := map[uint64]bool{root.StartBlock: true}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := s.store.ListChildren(dir)
		if err != nil {
			s.log.WithError(err).WithField("dir", dir).Warn("failed to list directory during inode resolution")
			continue
		}
		for _, child := range children {
			if child.Name == "." || child.Name == ".." {
				continue
			}
			if child.StartBlock == ino {
				return child, true
			}
			if child.IsDir() && !visited[child.StartBlock] {
				visited[child.StartBlock] = true
				stack = append(stack, child.StartBlock)
			}
		}
	}
	return store.Entity{}, false
}

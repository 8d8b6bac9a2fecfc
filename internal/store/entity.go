package store

// Flags describe an entity's kind.
type Flags uint32

const (
	// FlagDirectory marks the entity as a directory.
	FlagDirectory Flags = 1 << 0
)

// Entity is a file or directory stored in the image. StartBlock is the
// first block of the entity's chain and doubles as its stable identifier.
type Entity struct {
	StartBlock uint64
	Name       string
	Size       uint64
	Flags      Flags
}

// IsDir reports whether the entity is a directory.
func (e Entity) IsDir() bool {
	return e.Flags&FlagDirectory != 0
}

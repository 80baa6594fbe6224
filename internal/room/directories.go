package room

// Directories bundles the two room namespaces. A code in the signaling
// namespace and the same code in the fallback namespace are unrelated
// rooms; membership in one never implies membership in the other.
type Directories struct {
	// Rooms is the signaling namespace: viewers open rooms, cameras may
	// only join existing ones.
	Rooms *Directory

	// Fallback is the namespace for the degraded frame-relay path, where
	// either side may open the room.
	Fallback *Directory
}

func NewDirectories() *Directories {
	return &Directories{
		Rooms:    NewDirectory(ViewerCreates),
		Fallback: NewDirectory(AnyCreates),
	}
}

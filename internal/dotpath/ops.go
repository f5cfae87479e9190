package dotpath

// Get returns the value at path.
func Get(root any, path string) (any, bool) {
	return GetAt(root, Parse(path))
}

// GetAt returns the value at segs.
func GetAt(root any, segs []string) (any, bool) {
	res := ResolveSegments(root, segs, OpGet, nil)
	return res.Value, res.Found
}

// Set stores item at path and returns the rebuilt root.
func Set(root any, path string, item any) Resolution {
	return ResolveSegments(root, Parse(path), OpSet, item)
}

// SetAt stores item at segs.
func SetAt(root any, segs []string, item any) Resolution {
	return ResolveSegments(root, segs, OpSet, item)
}

// Push appends item to the sequence at path, or stores it when the location
// does not hold a sequence.
func Push(root any, path string, item any) Resolution {
	return ResolveSegments(root, Parse(path), OpPush, item)
}

// PushAt is Push on segments.
func PushAt(root any, segs []string, item any) Resolution {
	return ResolveSegments(root, segs, OpPush, item)
}

// Erase removes the entry at path.
func Erase(root any, path string) Resolution {
	return ResolveSegments(root, Parse(path), OpErase, nil)
}

// EraseAt is Erase on segments.
func EraseAt(root any, segs []string) Resolution {
	return ResolveSegments(root, segs, OpErase, nil)
}

// EraseItem removes item from the sequence holding path's last segment, or
// the last key when that container is a mapping.
func EraseItem(root any, path string, item any) Resolution {
	return ResolveSegments(root, Parse(path), OpEraseItem, item)
}

// EraseItemAt is EraseItem on segments.
func EraseItemAt(root any, segs []string, item any) Resolution {
	return ResolveSegments(root, segs, OpEraseItem, item)
}

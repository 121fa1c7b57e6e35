package valueobjects

// Sticky fields survive partial reloads: a segment payload that omits a
// field for an already-cached entity must not erase the previously known
// value. The precedence is always incoming value, then previous cached
// value, then the zero value.

// StickyPtr resolves a pointer-valued sticky field
func StickyPtr[T any](incoming, previous *T) *T {
	if incoming != nil {
		return incoming
	}
	return previous
}

// StickyString resolves a string-valued sticky field, where the empty
// string means "not carried by this payload"
func StickyString(incoming, previous string) string {
	if incoming != "" {
		return incoming
	}
	return previous
}

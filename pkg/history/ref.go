package history

// Ref is an Object that can be compared with its zero value, typically a
// pointer to a history-enabled type.
type Ref interface {
	Object
	comparable
}

// idOf returns the ID of v, or NoID when v is the zero value.
func idOf[T Ref](v T) ID {
	var zero T
	if v == zero {
		return NoID
	}
	return v.HistoryID()
}

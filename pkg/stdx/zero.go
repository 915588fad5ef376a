package stdx

// Zero returns the zero value for T.
func Zero[T any]() T {
	var t T
	return t
}

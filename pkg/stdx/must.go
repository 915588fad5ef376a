package stdx

// Must0 panics when err is not nil. Use it for setup code where an error
// means the program cannot meaningfully continue.
func Must0(err error) {
	if err != nil {
		panic(err)
	}
}

// Must1 returns v or panics when err is not nil.
func Must1[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// Must2 returns both values or panics when err is not nil.
func Must2[T any, V any](t T, v V, err error) (T, V) {
	if err != nil {
		panic(err)
	}
	return t, v
}

package slogx

import (
	"fmt"
	"log/slog"
)

// Error returns a slog attribute with the key "error" and the error's
// message as the value.
func Error(err error) slog.Attr {
	return slog.String("error", err.Error())
}

// ByteString returns a slog attribute holding value as a string.
func ByteString(key string, value []byte) slog.Attr {
	return slog.String(key, string(value))
}

// Stringer returns a slog attribute holding the string form of value.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

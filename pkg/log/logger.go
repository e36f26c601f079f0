package log

import (
	"fmt"
	"time"
)

// Logger is the structured logger every lifepad component writes to.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a logger that adds fields to every entry.
	With(fields ...Field) Logger
}

// Field is one key-value pair attached to an entry.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Stringer defers formatting of value until the entry is written. Addresses,
// directions, kinds and task states are all Stringers.
func Stringer(key string, value fmt.Stringer) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Err attaches err under the key "error".
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// Any attaches an arbitrary value, encoded by the backend.
func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

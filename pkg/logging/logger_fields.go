package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Domain field helpers

func Component(name string) Field {
	return String("component", name)
}

// Concept identifies a concept by its printable id
func Concept(id string) Field {
	return String("concept", id)
}

func Hierarchy(name string) Field {
	return String("hierarchy", name)
}

func ConstraintType(name string) Field {
	return String("constraint_type", name)
}

// Constraint describes a constraint by its printable form
func Constraint(desc string) Field {
	return String("constraint", desc)
}

func Operation(op string) Field {
	return String("operation", op)
}

// Direction records whether an action was played forward or backward
func Direction(forward bool) Field {
	if forward {
		return String("direction", "forward")
	}
	return String("direction", "backward")
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}

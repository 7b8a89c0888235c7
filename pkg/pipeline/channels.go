// Package pipeline implements a directed-graph workflow executor over a
// shared state record. Steps read state and return partial updates; the
// runner merges each update through per-field channel rules and advances
// along unconditional edges until the terminal marker is reached.
package pipeline

// MergeFunc combines an existing field value with a newly produced one.
// Merge functions must be pure and total.
type MergeFunc func(old, incoming any) any

// DefaultFunc produces the value reported for a field that has never
// been written.
type DefaultFunc func() any

// Channel defines the merge rule and default for a single state field.
type Channel struct {
	Merge   MergeFunc
	Default DefaultFunc
}

// Channels is the registry of every field a pipeline's state may hold.
// A delta touching an unregistered field fails the Apply.
type Channels map[string]Channel

// Replace returns a last-write-wins channel with a nil default.
func Replace() Channel {
	return ReplaceDefault(func() any { return nil })
}

// ReplaceDefault returns a last-write-wins channel with the given default.
func ReplaceDefault(def DefaultFunc) Channel {
	return Channel{
		Merge:   func(_, incoming any) any { return incoming },
		Default: def,
	}
}

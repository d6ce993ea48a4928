package book

import "errors"

// ErrArenaExhausted is returned by Book.AddOrder when the order arena's
// freelist is empty. It is a fatal configuration error: the arena's
// capacity was sized below the workload's peak number of live resting
// orders, and the caller must not continue feeding events into this
// Book once it has been returned.
var ErrArenaExhausted = errors.New("book: order arena exhausted")

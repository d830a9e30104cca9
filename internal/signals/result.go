// Package signals gathers the facts a credit score is built from.
//
// Each dependent dataset is fetched independently into a Result. Derive
// turns whatever was retrieved into domain.BorrowerSignals; a failed
// dataset is replaced by empty or unknown values and listed in Degraded.
package signals

// Result holds either a fetched value or the error that prevented it.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok wraps a successfully fetched value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail wraps a fetch error.
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// OK reports whether the value was fetched.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

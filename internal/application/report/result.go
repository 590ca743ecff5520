package report

// Result is the tagged outcome of one pipeline sub-call: either a value or
// the reason it failed. Callers compose fallbacks explicitly.
type Result[T any] struct {
	Value T
	Err   error
}

func Ok[T any](v T) Result[T] { return Result[T]{Value: v} }

func Fail[T any](err error) Result[T] { return Result[T]{Err: err} }

func (r Result[T]) OK() bool { return r.Err == nil }

// ErrString returns the error message, or nil on success.
func (r Result[T]) ErrString() *string {
	if r.Err == nil {
		return nil
	}
	s := r.Err.Error()
	return &s
}

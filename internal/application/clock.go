package application

import "time"

// Clock stamps sessions and stage errors; tests inject a fixed one.
type Clock interface {
	Now() time.Time
}

// SystemClock uses the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

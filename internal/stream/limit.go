package stream

import (
	"net"
	"net/http"
)

// slots caps the number of open streams. The viewer serves a handful of
// local consumers, so one shared limit is enough.
type slots chan struct{}

func newSlots(n int) slots {
	if n < 1 {
		n = 1
	}
	return make(slots, n)
}

// tryAcquire takes a slot without blocking.
func (s slots) tryAcquire() bool {
	select {
	case s <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s slots) release() {
	<-s
}

func (s slots) inUse() int {
	return len(s)
}

// clientIP returns the host part of the request's remote address, for logs.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package payment

import (
	"strconv"
	"sync/atomic"
	"time"
)

// ReferenceGenerator issues "<PREFIX>-<epochMillis>" references.
// Values are strictly increasing within a process: a second call in the same millisecond
// is moved to the next free millisecond.
type ReferenceGenerator struct {
	prefix string
	now    func() time.Time
	last   atomic.Int64
}

func NewReferenceGenerator(prefix string) *ReferenceGenerator {
	return &ReferenceGenerator{prefix: prefix, now: time.Now}
}

func (g *ReferenceGenerator) Next() string {
	for {
		prev := g.last.Load()
		next := g.now().UnixMilli()
		if next <= prev {
			next = prev + 1
		}
		if g.last.CompareAndSwap(prev, next) {
			return g.prefix + "-" + strconv.FormatInt(next, 10)
		}
	}
}

package diag

// eventRing is a fixed-capacity circular store of transition events.
// Not safe for concurrent use; the Controller synchronizes access.
type eventRing struct {
	buf      []Event
	capacity int
	head     int // next write position
	count    int
	overflow bool
	total    uint64
}

func newEventRing(capacity int) *eventRing {
	if capacity <= 0 {
		capacity = 1
	}
	return &eventRing{
		buf:      make([]Event, capacity),
		capacity: capacity,
	}
}

// push records an event, overwriting the oldest entry when full.
// total counts every push ever made, independent of overwrites.
func (r *eventRing) push(ev Event) {
	r.buf[r.head] = ev
	r.head = (r.head + 1) % r.capacity
	if r.count < r.capacity {
		r.count++
	} else {
		r.overflow = true
	}
	r.total++
}

// drainRecent returns up to max of the most recent events, oldest first.
// With clear set, occupancy and the overflow flag reset; total is untouched.
func (r *eventRing) drainRecent(max int, clear bool) []Event {
	n := r.count
	if max >= 0 && max < n {
		n = max
	}

	var out []Event
	if n > 0 {
		out = make([]Event, n)
		start := (r.head - n + r.capacity) % r.capacity
		for i := 0; i < n; i++ {
			out[i] = r.buf[(start+i)%r.capacity]
		}
	}

	if clear {
		r.reset()
	}
	return out
}

// reset empties the buffer without touching the total counter.
func (r *eventRing) reset() {
	r.head = 0
	r.count = 0
	r.overflow = false
}

// resetTotal zeroes the lifetime event counter.
func (r *eventRing) resetTotal() {
	r.total = 0
}

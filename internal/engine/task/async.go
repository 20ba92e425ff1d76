// Released under an MIT license. See LICENSE.

package task

import (
	"sync"
	"time"
)

type timers struct {
	sync.Mutex
	active map[int]chan struct{}
	next   int
}

func newTimers() *timers {
	return &timers{active: map[int]chan struct{}{}}
}

// Schedule calls fn after delay and, if repeat is true, every delay after
// that until the timer is cancelled. It returns the timer's id.
func (r *Runtime) Schedule(delay time.Duration, repeat bool, fn func() error) int {
	if delay < time.Millisecond {
		delay = time.Millisecond
	}

	stop := make(chan struct{})

	r.timers.Lock()
	r.timers.next++
	id := r.timers.next
	r.timers.active[id] = stop
	r.timers.Unlock()

	r.tasks.Add(1)

	go func() {
		defer r.tasks.Done()
		defer r.timers.remove(id)

		ticker := time.NewTicker(delay)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
			}

			if err := fn(); err != nil {
				r.report("timer", err)
			}

			if !repeat {
				return
			}
		}
	}()

	return id
}

// Cancel stops the timer id. It returns false if no such timer is pending.
func (r *Runtime) Cancel(id int) bool {
	r.timers.Lock()
	defer r.timers.Unlock()

	stop, ok := r.timers.active[id]
	if ok {
		close(stop)
		delete(r.timers.active, id)
	}

	return ok
}

func (t *timers) remove(id int) {
	t.Lock()
	defer t.Unlock()

	delete(t.active, id)
}

package quiz

import (
	"sync"
	"time"
)

// questionTimer drives the per-question clock. With a positive limit it
// counts down once per tick and emits expiry exactly once when it reaches
// zero, then exits. With limit 0 it counts up for display and never
// expires. gen ties every event to the question the timer was armed for;
// the session discards events carrying a stale generation.
type questionTimer struct {
	stop chan struct{}
	once sync.Once
}

func startQuestionTimer(limitSec int, gen uint64, interval time.Duration, emit func(gen uint64, value int, expired bool)) *questionTimer {
	t := &questionTimer{stop: make(chan struct{})}
	go func() {
		tk := time.NewTicker(interval)
		defer tk.Stop()
		value := limitSec
		for {
			select {
			case <-t.stop:
				return
			case <-tk.C:
				if limitSec > 0 {
					value--
					if value <= 0 {
						emit(gen, 0, true)
						return
					}
					emit(gen, value, false)
				} else {
					value++
					emit(gen, value, false)
				}
			}
		}
	}()
	return t
}

// Stop tears the timer down. Safe to call more than once; a torn-down
// timer emits nothing further.
func (t *questionTimer) Stop() {
	t.once.Do(func() { close(t.stop) })
}

package recorder

import (
	"sync"
	"time"
)

// ticker drives the periodic elapsed time display of a running drive.
// It never touches recorded timings.
type ticker struct {
	stopCh chan struct{}
	once   sync.Once
}

func startTicker(interval time.Duration, wg *sync.WaitGroup, fn func(tk *ticker)) *ticker {
	tk := &ticker{stopCh: make(chan struct{})}
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-tk.stopCh:
				return
			case <-t.C:
				fn(tk)
			}
		}
	}()
	return tk
}

// stop does not wait for the goroutine, it may be called with the recorder
// lock held.
func (tk *ticker) stop() {
	if tk == nil {
		return
	}
	tk.once.Do(func() { close(tk.stopCh) })
}

package link

import (
	"sync"

	"github.com/lumina-home/lumina-core/internal/thing"
)

// reconciler serialises work per channel. Tasks submitted for the same
// channel run one at a time in submission order; tasks for different
// channels run concurrently. There is no global lock and no long-lived
// worker per channel: a drain goroutine is started when a channel's
// queue becomes non-empty and exits when it empties.
//
// stop rejects further submissions and blocks until every queued task
// has run.
type reconciler struct {
	mu      sync.Mutex
	queues  map[thing.ChannelUID]*channelQueue
	wg      sync.WaitGroup
	stopped bool
}

type channelQueue struct {
	tasks   []func()
	running bool
}

func newReconciler() *reconciler {
	return &reconciler{queues: make(map[thing.ChannelUID]*channelQueue)}
}

// submit queues fn on the channel's serial queue. It returns false if
// the reconciler has been stopped, in which case fn will not run.
func (r *reconciler) submit(ch thing.ChannelUID, fn func()) bool {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return false
	}
	q, ok := r.queues[ch]
	if !ok {
		q = &channelQueue{}
		r.queues[ch] = q
	}
	q.tasks = append(q.tasks, fn)
	if q.running {
		r.mu.Unlock()
		return true
	}
	q.running = true
	r.wg.Add(1)
	r.mu.Unlock()

	go r.drain(ch, q)
	return true
}

// run queues fn and blocks until it has executed. Returns false without
// running fn if the reconciler has been stopped.
func (r *reconciler) run(ch thing.ChannelUID, fn func()) bool {
	done := make(chan struct{})
	ok := r.submit(ch, func() {
		defer close(done)
		fn()
	})
	if !ok {
		return false
	}
	<-done
	return true
}

func (r *reconciler) drain(ch thing.ChannelUID, q *channelQueue) {
	defer r.wg.Done()
	for {
		r.mu.Lock()
		if len(q.tasks) == 0 {
			q.running = false
			delete(r.queues, ch)
			r.mu.Unlock()
			return
		}
		fn := q.tasks[0]
		q.tasks = q.tasks[1:]
		r.mu.Unlock()

		fn()
	}
}

// stop rejects new submissions and waits for in-flight tasks to finish.
func (r *reconciler) stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	r.wg.Wait()
}

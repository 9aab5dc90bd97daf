package alarm

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidTriggerTime = errors.New("alarm: invalid trigger time")
	ErrEngineStopped      = errors.New("alarm: engine stopped")
)

// Payload is the identifying data delivered when an alarm fires. It
// must be enough for the alarm screen to display the task.
type Payload struct {
	TaskID   string
	TaskName string
}

// Event is a fired alarm.
type Event struct {
	Handle    string
	TriggerAt time.Time
	Payload   Payload
}

type queueItem struct {
	handle    string
	triggerAt time.Time
	payload   Payload
}

type priorityQueue []queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].triggerAt.Before(pq[j].triggerAt)
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *priorityQueue) Push(x any) {
	*pq = append(*pq, x.(queueItem))
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}

// Engine is the in-process notification facility: it accepts absolute
// trigger times, fires events on its channel when they come due, and
// supports cancellation through the handle returned at arm time.
type Engine struct {
	mu        sync.Mutex
	queue     priorityQueue
	cancelled map[string]struct{}
	out       chan Event
	wakeup    chan struct{}
	stopCh    chan struct{}
	doneCh    chan struct{}
	started   bool
	stopped   bool
	dropped   uint64
}

func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		queue:     make(priorityQueue, 0),
		cancelled: make(map[string]struct{}),
		out:       make(chan Event, bufferSize),
		wakeup:    make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

func (e *Engine) C() <-chan Event {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	heap.Init(&e.queue)
	go e.loop()
}

func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

// ScheduleAt arms a single absolute-time trigger and returns its handle.
func (e *Engine) ScheduleAt(at time.Time, p Payload) (string, error) {
	if at.IsZero() {
		return "", ErrInvalidTriggerTime
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return "", ErrEngineStopped
	}

	handle := uuid.NewString()
	heap.Push(&e.queue, queueItem{handle: handle, triggerAt: at, payload: p})
	e.signalWakeup()
	return handle, nil
}

// Cancel disarms the handle. Unknown, already-fired, and
// already-cancelled handles are tolerated silently.
func (e *Engine) Cancel(handle string) {
	if handle == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, item := range e.queue {
		if item.handle == handle {
			e.cancelled[handle] = struct{}{}
			e.signalWakeup()
			return
		}
	}
}

// Armed counts pending, non-cancelled triggers.
func (e *Engine) Armed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, item := range e.queue {
		if _, ok := e.cancelled[item.handle]; !ok {
			n++
		}
	}
	return n
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	var timer *time.Timer
	for {
		next, hasNext := e.peek()
		if !hasNext {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		wait := time.Until(next.triggerAt)
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			due := e.popDue(time.Now())
			for _, ev := range due {
				select {
				case e.out <- ev:
				default:
					atomic.AddUint64(&e.dropped, 1)
				}
			}
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			if timer != nil {
				stopTimer(timer)
			}
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

// peek returns the earliest non-cancelled pending trigger, dropping
// cancelled entries from the head of the queue as it goes.
func (e *Engine) peek() (queueItem, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for len(e.queue) > 0 {
		head := e.queue[0]
		if _, ok := e.cancelled[head.handle]; !ok {
			return head, true
		}
		heap.Pop(&e.queue)
		delete(e.cancelled, head.handle)
	}
	return queueItem{}, false
}

func (e *Engine) popDue(now time.Time) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Event, 0)
	for len(e.queue) > 0 {
		next := e.queue[0]
		if next.triggerAt.After(now) {
			break
		}
		heap.Pop(&e.queue)
		if _, ok := e.cancelled[next.handle]; ok {
			delete(e.cancelled, next.handle)
			continue
		}
		out = append(out, Event{Handle: next.handle, TriggerAt: next.triggerAt, Payload: next.payload})
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}

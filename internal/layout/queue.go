package layout

import (
	"sync"

	"go.uber.org/multierr"
)

// Trigger names what asked for a layout re-evaluation. Every slide is
// evaluated once up front; later triggers report content whose height
// changed after that pass.
type Trigger int

const (
	TriggerInitial Trigger = iota
	// TriggerImageLoad: images gained their intrinsic size.
	TriggerImageLoad
	// TriggerDiagramRendered: diagram source was drawn as SVG.
	TriggerDiagramRendered
)

var triggerNames = [...]string{"initial", "image-load", "diagram-rendered"}

func (t Trigger) String() string {
	if int(t) >= 0 && int(t) < len(triggerNames) {
		return triggerNames[t]
	}
	return "unknown"
}

// Task is one pending re-evaluation of a slide with every trigger that
// asked for it.
type Task struct {
	Slide    int
	Triggers []Trigger
}

// Queue orders layout re-evaluations. A slide is queued at most once;
// later requests for a queued slide only add their trigger. Tasks run one
// at a time, each to completion before the next.
type Queue struct {
	mu      sync.Mutex
	order   []int
	pending map[int]*Task
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	return &Queue{pending: map[int]*Task{}}
}

// Enqueue schedules slide for re-evaluation. It returns false when the
// request was coalesced into a task already queued.
func (q *Queue) Enqueue(slide int, trigger Trigger) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if t, ok := q.pending[slide]; ok {
		t.Triggers = append(t.Triggers, trigger)
		return false
	}
	q.pending[slide] = &Task{Slide: slide, Triggers: []Trigger{trigger}}
	q.order = append(q.order, slide)
	return true
}

// Len returns the number of queued tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

func (q *Queue) pop() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.order) == 0 {
		return Task{}, false
	}
	slide := q.order[0]
	q.order = q.order[1:]
	t := q.pending[slide]
	delete(q.pending, slide)
	return *t, true
}

// Drain runs fn for every task until the queue is empty, including tasks
// enqueued by fn itself. Errors do not stop the drain; they are combined
// and returned. A task that always re-enqueues its own slide never lets
// Drain return.
func (q *Queue) Drain(fn func(Task) error) error {
	var errs error
	for {
		t, ok := q.pop()
		if !ok {
			return errs
		}
		errs = multierr.Append(errs, fn(t))
	}
}

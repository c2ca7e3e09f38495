package internal

import (
	"container/heap"
	"context"
	"fmt"
	"time"
)

// Scheduler runs a VM's jobs cooperatively. Each job has its own goroutine,
// but only the job holding the scheduler's baton executes; it runs until it
// reaches a suspension point, then hands the baton back.
type Scheduler struct {
	vm *VM
	// queue is the run queue.
	queue []*Job
	// sleepers holds jobs suspended until a deadline.
	sleepers sleepHeap
	// live is the set of unfinished jobs in creation order.
	live []*Job
	// cur is the job holding the baton.
	cur *Job
	// back receives the baton from the running job.
	back chan struct{}
	// nextID numbers jobs.
	nextID int
	// running is true while Run is on the stack.
	running bool
}

func newScheduler(vm *VM) *Scheduler {
	return &Scheduler{vm: vm, back: make(chan struct{})}
}

// Current returns the job holding the baton, or nil if no job is running.
// Native code called from a primitive can use it to find the calling job.
func (s *Scheduler) Current() *Job {
	return s.cur
}

// Jobs returns a snapshot of the unfinished jobs in creation order.
func (s *Scheduler) Jobs() []*Job {
	return append([]*Job(nil), s.live...)
}

// Spawn creates a job running body and makes it runnable. If parent is not
// nil, the job starts with a copy of the parent's tag stack and innermost
// frame, so it runs in the same scope. Spawn does not register the job with
// any collector.
func (s *Scheduler) Spawn(name string, parent *Job, body func(j *Job) (*Object, Stop)) *Job {
	if parent != nil {
		return s.spawn(name, parent, parent.context(), body)
	}
	return s.spawn(name, nil, jobContext{frame: &Frame{Self: s.vm.Lobby}}, body)
}

// jobContext is the scope a new job starts in.
type jobContext struct {
	tags  []*Tag
	frame *Frame
	stack []StackFrame
	conn  *Connection
}

// context captures the job's current scope for jobs spawned in it later.
func (j *Job) context() jobContext {
	return jobContext{
		tags:  j.Tags(),
		frame: j.frame(),
		stack: j.Stack(),
		conn:  j.conn,
	}
}

func (s *Scheduler) spawn(name string, parent *Job, ctx jobContext, body func(j *Job) (*Object, Stop)) *Job {
	s.nextID++
	if name == "" {
		name = fmt.Sprintf("%s%d", s.vm.Config.JobNamePrefix, s.nextID)
	}
	j := &Job{
		vm:     s.vm,
		sched:  s,
		name:   name,
		parent: parent,
		tags:   append([]*Tag(nil), ctx.tags...),
		frames: []*Frame{ctx.frame.fork()},
		stack:  append([]StackFrame(nil), ctx.stack...),
		conn:   ctx.conn,
		wake:   make(chan struct{}),
	}
	s.live = append(s.live, j)
	s.pushBack(j)
	s.vm.Logger.Debug("job spawn", "job", name)
	go j.run(body)
	return j
}

// kill makes o unwind entirely at its next suspension point. If o is not the
// running job, it is moved to the front of the run queue.
func (s *Scheduler) kill(o *Job) {
	if o.Done() {
		return
	}
	o.interrupt(unwind{depth: -1, payload: s.vm.Void})
	if o != s.cur {
		s.pushFront(o)
	}
}

// Run runs jobs until done returns true, no job can run, or ctx is done. Jobs
// that are only sleeping are waited for. Run must not be called from within a
// job.
func (s *Scheduler) Run(ctx context.Context, done func() bool) error {
	if s.running {
		panic("urbi: Scheduler.Run called from within a job")
	}
	s.running = true
	defer func() { s.running = false }()
	for !done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.wakeSleepers(time.Now())
		j := s.pop()
		if j == nil {
			if len(s.sleepers) == 0 {
				return nil
			}
			t := time.NewTimer(time.Until(s.sleepers[0].deadline))
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
			continue
		}
		s.step(j)
	}
	return nil
}

// step hands the baton to j and waits for it to come back.
func (s *Scheduler) step(j *Job) {
	s.cur = j
	j.state = Running
	j.wake <- struct{}{}
	<-s.back
	s.cur = nil
}

// pop removes the first job from the run queue.
func (s *Scheduler) pop() *Job {
	if len(s.queue) == 0 {
		return nil
	}
	j := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]
	j.queued = false
	return j
}

// pushBack appends j to the run queue if it is not already queued.
func (s *Scheduler) pushBack(j *Job) {
	if j.queued || j.Done() {
		return
	}
	j.queued = true
	j.state = Runnable
	s.queue = append(s.queue, j)
}

// pushFront moves jobs to the front of the run queue, in order, pulling them
// out of whatever they were waiting on.
func (s *Scheduler) pushFront(jobs ...*Job) {
	if len(jobs) == 0 {
		return
	}
	q := make([]*Job, 0, len(jobs)+len(s.queue))
	for _, j := range jobs {
		if j == s.cur || j.Done() || containsJob(q, j) {
			continue
		}
		if j.waitCancel != nil {
			j.waitCancel()
			j.waitCancel = nil
		}
		j.queued = true
		j.state = Runnable
		q = append(q, j)
	}
	for _, j := range s.queue {
		if !containsJob(q, j) {
			q = append(q, j)
		}
	}
	s.queue = q
}

// insertAt puts j at index i of the run queue.
func (s *Scheduler) insertAt(i int, j *Job) {
	if j.queued {
		return
	}
	if i > len(s.queue) {
		i = len(s.queue)
	}
	j.queued = true
	j.state = Runnable
	s.queue = append(s.queue, nil)
	copy(s.queue[i+1:], s.queue[i:])
	s.queue[i] = j
}

// remove drops a finished job from the live set.
func (s *Scheduler) remove(j *Job) {
	for i, o := range s.live {
		if o == j {
			s.live = append(s.live[:i], s.live[i+1:]...)
			return
		}
	}
}

// sleep suspends j until the deadline.
func (s *Scheduler) sleep(j *Job, deadline time.Time) {
	e := &sleeper{job: j, deadline: deadline}
	heap.Push(&s.sleepers, e)
	j.waitCancel = func() {
		if e.index >= 0 {
			heap.Remove(&s.sleepers, e.index)
		}
	}
}

// wakeSleepers moves jobs whose deadlines have passed to the run queue.
func (s *Scheduler) wakeSleepers(now time.Time) {
	for len(s.sleepers) > 0 && !s.sleepers[0].deadline.After(now) {
		e := heap.Pop(&s.sleepers).(*sleeper)
		e.job.waitCancel = nil
		s.pushBack(e.job)
	}
}

func containsJob(l []*Job, j *Job) bool {
	for _, o := range l {
		if o == j {
			return true
		}
	}
	return false
}

type sleeper struct {
	job      *Job
	deadline time.Time
	index    int
}

// sleepHeap is a min-heap of sleepers by deadline.
type sleepHeap []*sleeper

func (h sleepHeap) Len() int           { return len(h) }
func (h sleepHeap) Less(i, j int) bool { return h[i].deadline.Before(h[j].deadline) }
func (h sleepHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *sleepHeap) Push(x interface{}) {
	e := x.(*sleeper)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *sleepHeap) Pop() interface{} {
	old := *h
	e := old[len(old)-1]
	old[len(old)-1] = nil
	e.index = -1
	*h = old[:len(old)-1]
	return e
}

package internal

// A Collector tracks the child jobs a parent spawned so it can wait for all
// of them.
type Collector struct {
	owner *Job
	jobs  []*Job
	err   *ChildError
}

// NewCollector creates a collector owned by j.
func (j *Job) NewCollector() *Collector {
	return &Collector{owner: j}
}

// Spawn starts a child of the owner running body and adds it to the
// collector.
func (c *Collector) Spawn(name string, body func(j *Job) (*Object, Stop)) *Job {
	child := c.owner.sched.Spawn(name, c.owner, body)
	c.Add(child)
	return child
}

// Add registers a job with the collector. Failures of registered jobs are
// re-raised by Wait rather than reported to the job's connection.
func (c *Collector) Add(child *Job) {
	child.collector = c
	c.jobs = append(c.jobs, child)
}

// Len returns the number of registered jobs.
func (c *Collector) Len() int {
	return len(c.jobs)
}

// Wait suspends the owner until every registered job has terminated or
// failed. If any failed, the failure of the first registered one is raised
// again in the owner, with its original class and value, and Err reports it.
// Wait returns early if the owner is interrupted.
func (c *Collector) Wait() (*Object, Stop) {
	j := c.owner
	for _, child := range c.jobs {
		if child.Done() {
			continue
		}
		j.state = Collecting
		r, stop := j.Join(child)
		if stop != NoStop {
			return r, stop
		}
	}
	for _, child := range c.jobs {
		if child.state == Failed {
			c.err = &ChildError{Job: child, Err: child.err}
			c.jobs = nil
			return j.Raise(child.err)
		}
	}
	c.jobs = nil
	return j.vm.Void, NoStop
}

// Err returns the failure Wait raised, if any.
func (c *Collector) Err() error {
	if c.err == nil {
		return nil
	}
	return c.err
}

// Terminate stops every registered job that is still running.
func (c *Collector) Terminate() {
	for _, child := range c.jobs {
		c.owner.Terminate(child)
	}
}

// abort terminates the registered jobs and waits for them regardless of
// interrupts, for use when the owner is leaving the scope that spawned them
// abnormally. If the owner was stopped while waiting, abort returns that
// TagStop.
func (c *Collector) abort() (r *Object, stop Stop) {
	j := c.owner
	r = j.vm.Void
	for {
		c.Terminate()
		done := true
		for _, child := range c.jobs {
			if !child.Done() {
				done = false
				if v, s := j.Join(child); s != NoStop {
					r, stop = v, s
				}
			}
		}
		if done {
			break
		}
	}
	c.jobs = nil
	return r, stop
}

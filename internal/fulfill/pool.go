package fulfill

import "sync"

// Pool is the bounded worker pool issuance jobs are handed to, keeping slow
// provisioning calls off the event loop.
type Pool struct {
	jobs chan func()
	wg   sync.WaitGroup
	once sync.Once
}

// NewPool starts a pool with the given number of workers.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{jobs: make(chan func(), workers*4)}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				job()
			}
		}()
	}
	return p
}

// Submit queues a job, blocking when the pool is saturated.
func (p *Pool) Submit(job func()) {
	p.jobs <- job
}

// Shutdown stops accepting jobs and waits for queued ones to drain.
func (p *Pool) Shutdown() {
	p.once.Do(func() { close(p.jobs) })
	p.wg.Wait()
}

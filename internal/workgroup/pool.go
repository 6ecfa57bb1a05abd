// Package workgroup runs a CPU rendition of a compute dispatch: a grid of
// workgroups spread across goroutines.
package workgroup

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// ID identifies one workgroup in a dispatch grid.
type ID struct {
	X, Y int
}

// Pool executes workgroups on a fixed set of worker goroutines.
//
// Each worker owns a queue. An idle worker steals from the other queues, so
// slow groups (rays that orbit for many steps) do not stall the dispatch.
//
// Pool is safe for concurrent use, but dispatches are run one at a time.
type Pool struct {
	workers int
	queues  []chan job
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool

	dispatch sync.Mutex
}

type job struct {
	id  ID
	fn  func(ID)
	end *sync.WaitGroup
}

func (j job) run() {
	defer j.end.Done()
	j.fn(j.id)
}

// NewPool starts a pool. workers <= 0 selects GOMAXPROCS.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	depth := max(workers*4, 8)

	p := &Pool{
		workers: workers,
		queues:  make([]chan job, workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan job, depth)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	own := p.queues[id]

	for {
		select {
		case <-p.done:
			p.drain(own)
			return
		case j := <-own:
			j.run()
		default:
			if j, ok := p.steal(id); ok {
				j.run()
				continue
			}
			select {
			case <-p.done:
				p.drain(own)
				return
			case j := <-own:
				j.run()
			}
		}
	}
}

func (p *Pool) drain(q chan job) {
	for {
		select {
		case j := <-q:
			j.run()
		default:
			return
		}
	}
}

func (p *Pool) steal(self int) (job, bool) {
	for i := range p.workers {
		if i == self {
			continue
		}
		select {
		case j := <-p.queues[i]:
			return j, true
		default:
		}
	}
	return job{}, false
}

// Dispatch calls fn once for every workgroup in a groupsX×groupsY grid and
// returns when all calls have finished. It returns false, without running
// anything, if the pool is closed.
func (p *Pool) Dispatch(groupsX, groupsY int, fn func(ID)) bool {
	if !p.running.Load() {
		return false
	}
	if groupsX <= 0 || groupsY <= 0 {
		return true
	}

	p.dispatch.Lock()
	defer p.dispatch.Unlock()

	var end sync.WaitGroup
	end.Add(groupsX * groupsY)
	n := 0
	for y := 0; y < groupsY; y++ {
		for x := 0; x < groupsX; x++ {
			j := job{id: ID{X: x, Y: y}, fn: fn, end: &end}
			select {
			case p.queues[n%p.workers] <- j:
			case <-p.done:
				// Closing; run inline so the wait below completes.
				j.run()
			}
			n++
		}
	}
	end.Wait()
	return true
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int { return p.workers }

// Close stops the workers after the queued groups have run. It is safe to
// call more than once.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

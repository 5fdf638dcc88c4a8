package game

import (
	"context"

	"github.com/hailam/drawbackchess/internal/engine"
)

// Pending is a search running in the background. A host loop starts one
// with Think and polls it once per frame or tick; Pending itself is meant
// for that one goroutine.
type Pending struct {
	done   chan engine.Result
	cancel context.CancelFunc
	result *engine.Result
}

// Think starts a search on its own goroutine.
func Think(ctx context.Context, sc engine.SearchContext, algo engine.Algorithm) *Pending {
	ctx, cancel := context.WithCancel(ctx)
	p := &Pending{
		done:   make(chan engine.Result, 1),
		cancel: cancel,
	}
	go func() {
		p.done <- engine.Search(ctx, sc, algo) // always send, even with no move
	}()
	return p
}

// Poll returns the result if the search has finished.
func (p *Pending) Poll() (engine.Result, bool) {
	if p.result != nil {
		return *p.result, true
	}
	select {
	case r := <-p.done:
		p.finish(r)
		return r, true
	default:
		// Still thinking
		return engine.Result{}, false
	}
}

// Wait blocks until the search finishes.
func (p *Pending) Wait() engine.Result {
	if p.result != nil {
		return *p.result
	}
	r := <-p.done
	p.finish(r)
	return r
}

// Cancel asks the search to stop and waits for its best move so far.
func (p *Pending) Cancel() engine.Result {
	p.cancel()
	return p.Wait()
}

func (p *Pending) finish(r engine.Result) {
	p.result = &r
	p.cancel()
}

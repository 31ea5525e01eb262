package worker

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/voxnotes/meetgo/internal/pkg/cmdapp"
)

//EncodeRequest is a fixed encode task message
type EncodeRequest struct {
	Samples    []int16
	Channels   int
	SampleRate int
	Bitrate    int
}

type encodeResult struct {
	data []byte
	err  error
}

type encodeJob struct {
	req EncodeRequest
	out chan encodeResult
}

//Pool runs CPU heavy encodes on a fixed set of workers,
//keeping them off the request handling goroutines
type Pool struct {
	jobs chan encodeJob
	wg   sync.WaitGroup
	once sync.Once
}

//NewPool starts size workers
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	res := &Pool{jobs: make(chan encodeJob)}
	for i := 0; i < size; i++ {
		res.wg.Add(1)
		go res.run()
	}
	cmdapp.Log.Infof("Started encode pool with %d workers", size)
	return res
}

func (p *Pool) run() {
	defer p.wg.Done()
	for job := range p.jobs {
		data, err := encode(job.req)
		job.out <- encodeResult{data: data, err: err}
	}
}

//Encode schedules the request and waits for the result or ctx end
func (p *Pool) Encode(ctx context.Context, req EncodeRequest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "encode was not started")
	}
	out := make(chan encodeResult, 1)
	select {
	case p.jobs <- encodeJob{req: req, out: out}:
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "encode was not started")
	}
	select {
	case res := <-out:
		return res.data, res.err
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "encode timed out")
	}
}

//Close stops all workers
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.jobs)
	})
	p.wg.Wait()
}

package structure

import (
	"context"

	courseModels "coursehub/models/course"
)

type fetchResult struct {
	index  int
	videos []courseModels.Video
	err    error
}

// fanIn owns the join barrier of one Build call. The results channel is buffered
// to the number of launched fetches so a straggler never blocks after wait returns.
type fanIn struct {
	ctx       context.Context
	cancel    context.CancelFunc
	results   chan fetchResult
	remaining int
}

func newFanIn(parent context.Context, n int) *fanIn {
	ctx, cancel := context.WithCancel(parent)
	return &fanIn{
		ctx:     ctx,
		cancel:  cancel,
		results: make(chan fetchResult, n),
	}
}

func (f *fanIn) launch(index int, fetch func(ctx context.Context) ([]courseModels.Video, error)) {
	f.remaining++
	go func() {
		videos, err := fetch(f.ctx)
		f.results <- fetchResult{index: index, videos: videos, err: err}
	}()
}

// wait releases once every launched fetch has reported, or at the first error.
// onResult runs on the waiting goroutine only.
func (f *fanIn) wait(onResult func(index int, videos []courseModels.Video)) error {
	for f.remaining > 0 {
		select {
		case r := <-f.results:
			if r.err != nil {
				f.cancel()
				return r.err
			}
			onResult(r.index, r.videos)
			f.remaining--
		case <-f.ctx.Done():
			return f.ctx.Err()
		}
	}
	return nil
}

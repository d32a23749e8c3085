package pipeline

// Observer receives progress callbacks. Calls for one job arrive from a single
// goroutine; calls for different jobs may be concurrent.
type Observer interface {
	OnStart(job Job)
	OnFrame(job Job, frames int, t float64)
	OnDone(res Result)
}

type nopObserver struct{}

func (nopObserver) OnStart(Job)               {}
func (nopObserver) OnFrame(Job, int, float64) {}
func (nopObserver) OnDone(Result)             {}

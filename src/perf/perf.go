package perf

import (
	"context"
	"sort"
	"time"

	"git.hoosierptk.dev/forums/forums/src/jobs"
	"github.com/rs/zerolog"
)

// RequestPerf records timing blocks for a single request. It is only touched
// by the goroutine handling that request. All methods are safe to call on a
// nil *RequestPerf, which makes it easy to use outside of requests.
type RequestPerf struct {
	Route  string
	Path   string // the path actually matched
	Method string
	Start  time.Time
	End    time.Time
	Blocks []PerfBlock
}

func MakeNewRequestPerf(route string, method string, path string) *RequestPerf {
	return &RequestPerf{
		Start:  time.Now(),
		Route:  route,
		Path:   path,
		Method: method,
	}
}

func (rp *RequestPerf) EndRequest() {
	if rp == nil {
		return
	}
	for rp.EndBlock() {
	}
	rp.End = time.Now()
}

type BlockHandle struct {
	rp    *RequestPerf
	index int
}

func (rp *RequestPerf) StartBlock(category, description string) *BlockHandle {
	if rp == nil {
		return &BlockHandle{index: -1}
	}
	rp.Blocks = append(rp.Blocks, PerfBlock{
		Start:       time.Now(),
		Category:    category,
		Description: description,
	})
	return &BlockHandle{rp: rp, index: len(rp.Blocks) - 1}
}

// End closes this specific block, regardless of what else is open.
func (h *BlockHandle) End() {
	if h == nil || h.rp == nil || h.index < 0 {
		return
	}
	if h.rp.Blocks[h.index].End.IsZero() {
		h.rp.Blocks[h.index].End = time.Now()
	}
}

// EndBlock closes the most recently started block that is still open.
func (rp *RequestPerf) EndBlock() bool {
	if rp == nil {
		return false
	}
	for i := len(rp.Blocks) - 1; i >= 0; i-- {
		if rp.Blocks[i].End.IsZero() {
			rp.Blocks[i].End = time.Now()
			return true
		}
	}
	return false
}

func (rp *RequestPerf) Duration() time.Duration {
	if rp == nil {
		return 0
	}
	return rp.End.Sub(rp.Start)
}

func (rp *RequestPerf) MsFromStart(block *PerfBlock) float64 {
	return float64(block.Start.Sub(rp.Start).Nanoseconds()) / 1000 / 1000
}

type PerfBlock struct {
	Start       time.Time
	End         time.Time
	Category    string
	Description string
}

func (pb *PerfBlock) Duration() time.Duration {
	return pb.End.Sub(pb.Start)
}

func (pb *PerfBlock) DurationMs() float64 {
	return float64(pb.Duration().Nanoseconds()) / 1000 / 1000
}

type perfContextKey struct{}

// PerfContextKey is exported so request types that implement context.Context
// themselves can answer for it.
var PerfContextKey = perfContextKey{}

func AttachPerfToContext(ctx context.Context, rp *RequestPerf) context.Context {
	return context.WithValue(ctx, PerfContextKey, rp)
}

// ExtractPerf returns the RequestPerf attached to ctx, or nil.
func ExtractPerf(ctx context.Context) *RequestPerf {
	if ctx == nil {
		return nil
	}
	rp, _ := ctx.Value(PerfContextKey).(*RequestPerf)
	return rp
}

type PerfStorage struct {
	AllRequests []RequestPerf
}

// SlowestBlocks returns the n longest blocks across every stored request.
func (s *PerfStorage) SlowestBlocks(n int) []PerfBlock {
	var all []PerfBlock
	for _, r := range s.AllRequests {
		all = append(all, r.Blocks...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Duration() > all[j].Duration()
	})
	if len(all) > n {
		all = all[:n]
	}
	return all
}

type PerfCollector struct {
	In          chan<- RequestPerf
	RequestCopy chan<- (chan<- PerfStorage)
}

// RunPerfCollector keeps the most recent keep requests in memory and logs any
// request slower than slowThreshold along with its slowest blocks.
func RunPerfCollector(keep int, slowThreshold time.Duration) (*PerfCollector, *jobs.Job) {
	in := make(chan RequestPerf)
	requestCopy := make(chan (chan<- PerfStorage))

	job := jobs.New("perf collector")
	go func() {
		defer job.Finish()

		var storage PerfStorage
		for {
			select {
			case perf := <-in:
				storage.AllRequests = append(storage.AllRequests, perf)
				if keep > 0 && len(storage.AllRequests) > keep {
					storage.AllRequests = storage.AllRequests[len(storage.AllRequests)-keep:]
				}
				if slowThreshold > 0 && perf.Duration() > slowThreshold {
					logSlowRequest(&job.Logger, &perf)
				}
			case resultChan := <-requestCopy:
				copied := PerfStorage{AllRequests: make([]RequestPerf, len(storage.AllRequests))}
				copy(copied.AllRequests, storage.AllRequests)
				resultChan <- copied
			case <-job.Canceled():
				return
			}
		}
	}()

	return &PerfCollector{
		In:          in,
		RequestCopy: requestCopy,
	}, job
}

func logSlowRequest(logger *zerolog.Logger, rp *RequestPerf) {
	storage := PerfStorage{AllRequests: []RequestPerf{*rp}}
	ev := logger.Warn().
		Str("route", rp.Route).
		Str("method", rp.Method).
		Str("path", rp.Path).
		Dur("duration", rp.Duration())
	for _, b := range storage.SlowestBlocks(3) {
		ev = ev.Str(b.Category+": "+b.Description, b.Duration().String())
	}
	ev.Msg("Slow request")
}

func (perfCollector *PerfCollector) SubmitRun(run *RequestPerf) {
	if perfCollector == nil || run == nil {
		return
	}
	perfCollector.In <- *run
}

func (perfCollector *PerfCollector) GetPerfCopy() *PerfStorage {
	resultChan := make(chan PerfStorage)
	perfCollector.RequestCopy <- resultChan
	perfStorageCopy := <-resultChan
	return &perfStorageCopy
}

package website

import (
	"time"

	"git.hoosierptk.dev/forums/forums/src/config"
)

type FlameItem struct {
	Offset      int64 // microseconds from the start of the request
	Duration    int64
	Category    string
	Description string
	Children    []*FlameItem
	End         time.Time  `json:"-"`
	Parent      *FlameItem `json:"-"`
}

type PerfRecord struct {
	Route     string
	Method    string
	Path      string
	Duration  int64
	Breakdown *FlameItem
}

type SlowBlock struct {
	Category    string
	Description string
	Duration    int64
}

type PerfmonData struct {
	Requests      []PerfRecord
	SlowestBlocks []SlowBlock
}

// Perfmon dumps the perf collector's recent requests as JSON, each with its
// blocks nested into a flame graph. Only mounted outside of live.
func Perfmon(c *RequestContext) ResponseData {
	if config.Config.IsLive() {
		return FourOhFour(c)
	}

	b := c.Perf.StartBlock("PERF", "Requesting perf data")
	perfData := c.PerfCollector.GetPerfCopy()
	b.End()

	var data PerfmonData
	{
		defer c.Perf.StartBlock("PERF", "Processing perf data").End()

		data.Requests = []PerfRecord{}
		for _, item := range perfData.AllRequests {
			record := PerfRecord{
				Route:    item.Route,
				Method:   item.Method,
				Path:     item.Path,
				Duration: item.End.Sub(item.Start).Microseconds(),
				Breakdown: &FlameItem{
					Offset:   0,
					Duration: item.End.Sub(item.Start).Microseconds(),
					End:      item.End,
				},
			}

			parent := record.Breakdown
			for _, block := range item.Blocks {
				for parent.Parent != nil && block.End.After(parent.End) {
					parent = parent.Parent
				}
				flame := FlameItem{
					Offset:      block.Start.Sub(item.Start).Microseconds(),
					Duration:    block.End.Sub(block.Start).Microseconds(),
					Category:    block.Category,
					Description: block.Description,
					End:         block.End,
					Parent:      parent,
				}

				parent.Children = append(parent.Children, &flame)
				parent = &flame
			}

			data.Requests = append(data.Requests, record)
		}

		for _, block := range perfData.SlowestBlocks(20) {
			data.SlowestBlocks = append(data.SlowestBlocks, SlowBlock{
				Category:    block.Category,
				Description: block.Description,
				Duration:    block.Duration().Microseconds(),
			})
		}
	}

	var res ResponseData
	res.WriteJson(data, c.Perf)
	return res
}

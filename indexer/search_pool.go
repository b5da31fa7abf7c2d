package indexer

import (
	"runtime"
	"sync"

	"github.com/ic-timon/mbrtree/geom"
)

// batchJob 单个查询任务，idx 为结果槽位
type batchJob struct {
	idx   int
	query geom.Region
}

// IntersectionQueryBatch runs IntersectionQuery for every query on a fixed pool of
// workers and returns the results in query order. workers <= 0 uses runtime.NumCPU().
// The tree must not be mutated while the batch runs.
func (t *Tree) IntersectionQueryBatch(queries []geom.Region, workers int) [][]Entry {
	out := make([][]Entry, len(queries))
	if len(queries) == 0 {
		return out
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(queries))

	jobs := make(chan batchJob, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				out[job.idx] = t.root.appendMatches(job.query, nil)
			}
		}()
	}
	for i, q := range queries {
		jobs <- batchJob{idx: i, query: q}
	}
	close(jobs)
	wg.Wait()
	queriesTotal.WithLabelValues("batch").Add(float64(len(queries)))
	return out
}

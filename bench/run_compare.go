package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ic-timon/mbrtree/bench/gen"
	"github.com/ic-timon/mbrtree/bench/metrics"
	"github.com/ic-timon/mbrtree/dataset"
	"github.com/ic-timon/mbrtree/geom"
	"github.com/ic-timon/mbrtree/indexer"
)

var compareCmd = &cli.Command{
	Name:  "compare",
	Usage: "build one tree per split strategy over the same data and compare them",
	Flags: []cli.Flag{
		capacityFlag(50),
		&cli.IntFlag{Name: "points", Value: 500, Usage: "generated points when --dataset is not set"},
		&cli.StringSliceFlag{Name: "strategies", Value: cli.NewStringSlice(indexer.StrategyNames()...)},
		&cli.StringFlag{Name: "dataset", Usage: "read rectangles from a dataset file instead of generating points"},
		&cli.IntFlag{Name: "queries", Value: 1000, Usage: "random window queries for latency percentiles"},
		&cli.IntFlag{Name: "parallel", Value: 0, Usage: "trees built concurrently, 0 means one per strategy; allocation counts need 1"},
		&cli.StringFlag{Name: "report", Usage: "CSV report path (default report/compare_<date>.csv)"},
	},
	Action: runCompare,
}

func runCompare(cctx *cli.Context) error {
	records, dim, err := loadRecords(cctx, cctx.Int("points"), 1000)
	if err != nil {
		return err
	}
	strategies := cctx.StringSlice("strategies")
	rows := make([]metrics.CompareRow, len(strategies))
	parallel := cctx.Int("parallel")
	if parallel <= 0 {
		parallel = len(strategies)
	}

	g, ctx := errgroup.WithContext(cctx.Context)
	g.SetLimit(parallel)
	for i, name := range strategies {
		i, name := i, name
		g.Go(func() error {
			row, err := compareOne(ctx, cctx, name, dim, records, parallel == 1)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, r := range rows {
		fmt.Printf("\n%s split strategy:\n", r.Strategy)
		fmt.Printf("  insert time: %.3f ms\n", r.InsertMs)
		fmt.Printf("  search time: %.3f ms\n", r.SearchMs)
		fmt.Printf("  found: %d\n", r.Found)
		fmt.Printf("  height: %d\n", r.Height)
		fmt.Printf("  size: %d\n", r.Size)
		fmt.Printf("  query p50/p99: %.4f / %.4f ms\n", r.Query.P50Ms, r.Query.P99Ms)
	}

	path := cctx.String("report")
	if path == "" {
		path = metrics.ReportPath("compare_", ".csv")
	}
	if err := metrics.WriteCompareCSV(rows, path); err != nil {
		return err
	}
	slog.Info("compare report written", "path", path, "strategies", len(rows), "cpu", metrics.CPUFeatures())
	return nil
}

// compareOne 建一棵树并测量；每个 goroutine 独占自己的树
func compareOne(ctx context.Context, cctx *cli.Context, strategy string, dim int, records []dataset.Record, countAllocs bool) (metrics.CompareRow, error) {
	tree, err := newTree(cctx, strategy)
	if err != nil {
		return metrics.CompareRow{}, err
	}
	if tree.Dimension() != dim {
		return metrics.CompareRow{}, fmt.Errorf("data has %d axes, tree %d", dim, tree.Dimension())
	}

	if countAllocs {
		metrics.GC()
	}
	before := metrics.Take()
	start := time.Now()
	for _, r := range records {
		if err := tree.Insert(idPayload(r.ID), r.Region, r.ID); err != nil {
			return metrics.CompareRow{}, err
		}
	}
	insertDur := time.Since(start)
	delta := metrics.Diff(before, metrics.Take())
	if err := ctx.Err(); err != nil {
		return metrics.CompareRow{}, err
	}

	q, err := queryBox(dim, 250, 750)
	if err != nil {
		return metrics.CompareRow{}, err
	}
	start = time.Now()
	found := tree.IntersectionQuery(q)
	searchDur := time.Since(start)

	rng := rand.New(rand.NewSource(cctx.Int64("seed")))
	windows := make([]geom.Region, cctx.Int("queries"))
	durations := make([]time.Duration, 0, len(windows))
	for i := range windows {
		windows[i] = randomWindow(rng, dim, 1000, 50)
		start := time.Now()
		tree.IntersectionQuery(windows[i])
		durations = append(durations, time.Since(start))
	}
	start = time.Now()
	tree.IntersectionQueryBatch(windows, 0)
	batchDur := time.Since(start)

	stats := tree.Stats()
	row := metrics.CompareRow{
		Strategy:  stats.Strategy,
		Capacity:  stats.NodeCapacity,
		Dimension: dim,
		Points:    len(records),
		Height:    stats.Height,
		Size:      stats.Size,
		Nodes:     stats.Nodes,
		InsertMs:  metrics.Millis(insertDur),
		SearchMs:  metrics.Millis(searchDur),
		Found:     len(found),
		Query:     metrics.LatencyStatsFromDurations(durations),
		CPU:       metrics.CPUFeatures(),
	}
	if len(windows) > 0 && batchDur > 0 {
		row.BatchQPS = float64(len(windows)) / batchDur.Seconds()
	}
	if countAllocs {
		row.AllocsPerOp = delta.AllocsPerOp(len(records))
	}
	slog.Info("strategy measured", "tree", stats, "build", delta)
	if err := tree.Validate(); err != nil {
		return row, err
	}
	return row, nil
}

func randomWindow(rng *rand.Rand, dim int, span, side float64) geom.Region {
	low := make([]float64, dim)
	high := make([]float64, dim)
	for d := range low {
		low[d] = rng.Float64() * (span - side)
		high[d] = low[d] + side
	}
	r, _ := geom.NewRegionFromCoords(low, high)
	return r
}

// loadRecords 优先读 --dataset，否则生成 n 个 [0, span] 内的随机点
func loadRecords(cctx *cli.Context, n int, span float64) ([]dataset.Record, int, error) {
	path := cctx.String("dataset")
	if path == "" {
		dim := cctx.Int("dimension")
		points := gen.RandomPoints(n, dim, 0, span, cctx.Int64("seed"))
		records := make([]dataset.Record, len(points))
		for i, p := range points {
			records[i] = dataset.Record{ID: uint64(i + 1), Region: p}
		}
		return records, dim, nil
	}
	r, err := dataset.OpenMmap(path)
	if err != nil {
		return nil, 0, err
	}
	defer r.Close()
	if r.Dim() != cctx.Int("dimension") {
		return nil, 0, fmt.Errorf("%s holds %d-d records, --dimension is %d", path, r.Dim(), cctx.Int("dimension"))
	}
	records := make([]dataset.Record, 0, r.Len())
	err = r.Each(func(rec dataset.Record) error {
		records = append(records, rec)
		return nil
	})
	slog.Debug("dataset loaded", "path", path, "records", len(records), "dim", r.Dim())
	return records, r.Dim(), err
}

package main

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ic-timon/mbrtree/bench/gen"
)

var basicCmd = &cli.Command{
	Name:  "basic",
	Usage: "insert random points, run one window query, print stats",
	Flags: []cli.Flag{
		strategyFlag,
		capacityFlag(16),
		&cli.IntFlag{Name: "points", Value: 50},
	},
	Action: runBasic,
}

func runBasic(cctx *cli.Context) error {
	tree, err := newTree(cctx, cctx.String("strategy"))
	if err != nil {
		return err
	}
	dim := tree.Dimension()
	points := gen.RandomPoints(cctx.Int("points"), dim, 0, 100, cctx.Int64("seed"))

	start := time.Now()
	for i, p := range points {
		if err := tree.Insert(idPayload(uint64(i)), p, uint64(i)); err != nil {
			return err
		}
	}
	fmt.Printf("inserted %d points in %s\n", len(points), time.Since(start))

	q, err := queryBox(dim, 25, 75)
	if err != nil {
		return err
	}
	start = time.Now()
	results := tree.IntersectionQuery(q)
	fmt.Printf("found %d points within %s in %s\n", len(results), q, time.Since(start))

	fmt.Println("first 10 results:")
	for _, e := range results[:min(10, len(results))] {
		idx := binary.LittleEndian.Uint64(e.Payload().Bytes())
		fmt.Printf("  point %d: %s\n", idx, points[idx].LowPoint())
	}

	fmt.Print(tree.Stats())
	slog.Info("basic done", "tree", tree.Stats())
	return tree.Validate()
}

package main

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/ic-timon/mbrtree/bench/gen"
	"github.com/ic-timon/mbrtree/dataset"
	"github.com/ic-timon/mbrtree/geom"
)

var genCmd = &cli.Command{
	Name:  "gen",
	Usage: "write a rectangle dataset file",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "out", Required: true},
		&cli.IntFlag{Name: "count", Value: 10000},
		&cli.StringFlag{Name: "kind", Value: "points", Usage: "points, boxes or clustered"},
		&cli.Float64Flag{Name: "span", Value: 1000, Usage: "coordinates fall in [0, span]"},
		&cli.Float64Flag{Name: "extent", Value: 10, Usage: "max box side for boxes and clustered"},
		&cli.IntFlag{Name: "clusters", Value: 8},
	},
	Action: runGen,
}

func runGen(cctx *cli.Context) error {
	n, dim, seed := cctx.Int("count"), cctx.Int("dimension"), cctx.Int64("seed")
	span, extent := cctx.Float64("span"), cctx.Float64("extent")

	var regions []geom.Region
	switch cctx.String("kind") {
	case "points":
		regions = gen.RandomPoints(n, dim, 0, span, seed)
	case "boxes":
		regions = gen.RandomBoxes(n, dim, 0, span, extent, seed)
	case "clustered":
		regions = gen.ClusteredBoxes(n, dim, gen.ClusterOpts{
			Clusters:  cctx.Int("clusters"),
			Lo:        0,
			Hi:        span,
			Spread:    span / 20,
			MaxExtent: extent,
		}, seed)
	default:
		return fmt.Errorf("unknown kind %q", cctx.String("kind"))
	}

	records := make([]dataset.Record, len(regions))
	for i, r := range regions {
		records[i] = dataset.Record{ID: uint64(i + 1), Region: r}
	}
	if err := dataset.WriteFileAtomic(cctx.String("out"), dim, records); err != nil {
		return err
	}
	slog.Info("dataset written", "path", cctx.String("out"), "records", len(records), "dim", dim, "kind", cctx.String("kind"))
	return nil
}

func idPayload(id uint64) []byte {
	return binary.LittleEndian.AppendUint64(nil, id)
}

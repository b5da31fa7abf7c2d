package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var dumpCmd = &cli.Command{
	Name:  "dump",
	Usage: "build a small tree and print its node hierarchy",
	Flags: []cli.Flag{
		strategyFlag,
		capacityFlag(4),
		&cli.IntFlag{Name: "points", Value: 30},
		&cli.StringFlag{Name: "dataset"},
		&cli.BoolFlag{Name: "entries", Usage: "also print leaf entries"},
	},
	Action: runDump,
}

func runDump(cctx *cli.Context) error {
	records, _, err := loadRecords(cctx, cctx.Int("points"), 100)
	if err != nil {
		return err
	}
	tree, err := newTree(cctx, cctx.String("strategy"))
	if err != nil {
		return err
	}
	for _, r := range records {
		if err := tree.Insert(idPayload(r.ID), r.Region, r.ID); err != nil {
			return err
		}
	}
	fmt.Print(tree.Dump(cctx.Bool("entries")))
	fmt.Print(tree.Stats())
	return tree.Validate()
}

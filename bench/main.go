// 压测入口：basic | compare | gen | dump
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/ic-timon/mbrtree/geom"
	"github.com/ic-timon/mbrtree/indexer"
)

func main() {
	// only try dotenv if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintln(os.Stderr, "error loading .env file:", err)
			os.Exit(1)
		}
	}
	if err := newApp().Run(os.Args); err != nil {
		slog.Error("bench failed", "err", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "mbrtree-bench",
		Usage: "R-tree split strategy benchmarks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log verbosity (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"MBRTREE_LOG_LEVEL"},
			},
			&cli.IntFlag{
				Name:    "dimension",
				Usage:   "number of axes",
				Value:   2,
				EnvVars: []string{"MBRTREE_DIMENSION"},
			},
			&cli.Int64Flag{
				Name:  "seed",
				Usage: "random seed for generated data",
				Value: 1,
			},
		},
		Before: func(cctx *cli.Context) error {
			configLogger(cctx, os.Stderr)
			return nil
		},
		Commands: []*cli.Command{
			basicCmd,
			compareCmd,
			genCmd,
			dumpCmd,
		},
	}
}

func configLogger(cctx *cli.Context, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cctx.String("log-level")) {
	case "error":
		level = slog.LevelError
	case "warn":
		level = slog.LevelWarn
	case "debug":
		level = slog.LevelDebug
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

var strategyFlag = &cli.StringFlag{
	Name:    "strategy",
	Usage:   "split strategy: " + strings.Join(indexer.StrategyNames(), ", "),
	Value:   "quadratic",
	EnvVars: []string{"MBRTREE_STRATEGY"},
}

func capacityFlag(def int) *cli.IntFlag {
	return &cli.IntFlag{
		Name:    "capacity",
		Usage:   "max entries per node",
		Value:   def,
		EnvVars: []string{"MBRTREE_CAPACITY"},
	}
}

// newTree 按命令行参数建树
func newTree(cctx *cli.Context, strategy string) (*indexer.Tree, error) {
	s, err := indexer.StrategyByName(strategy)
	if err != nil {
		return nil, err
	}
	return indexer.NewTree(&indexer.Config{
		Dimension:    cctx.Int("dimension"),
		NodeCapacity: cctx.Int("capacity"),
		Split:        s,
		Logger:       slog.Default(),
	})
}

// queryBox 构造每维都为 [lo, hi] 的查询区域
func queryBox(dim int, lo, hi float64) (geom.Region, error) {
	low := make([]float64, dim)
	high := make([]float64, dim)
	for d := range low {
		low[d], high[d] = lo, hi
	}
	return geom.NewRegionFromCoords(low, high)
}

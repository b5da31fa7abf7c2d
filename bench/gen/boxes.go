// Package gen 提供压测用的随机点、矩形与聚簇矩形
package gen

import (
	"math/rand"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/ic-timon/mbrtree/geom"
)

// RandomPoints 生成 n 个 dim 维均匀分布点（退化矩形），坐标在 [lo, hi]
func RandomPoints(n, dim int, lo, hi float64, seed int64) []geom.Region {
	rng := rand.New(rand.NewSource(seed))
	out := make([]geom.Region, n)
	for i := range out {
		c := make([]float64, dim)
		for d := range c {
			c[d] = lo + rng.Float64()*(hi-lo)
		}
		out[i] = geom.RegionFromPoint(geom.NewPoint(c...))
	}
	return out
}

// RandomBoxes 生成 n 个均匀分布矩形，每维边长在 [0, maxExtent)
func RandomBoxes(n, dim int, lo, hi, maxExtent float64, seed int64) []geom.Region {
	rng := rand.New(rand.NewSource(seed))
	out := make([]geom.Region, n)
	for i := range out {
		low := make([]float64, dim)
		high := make([]float64, dim)
		for d := range low {
			low[d] = lo + rng.Float64()*(hi-lo)
			high[d] = low[d] + rng.Float64()*maxExtent
		}
		out[i] = mustRegion(low, high)
	}
	return out
}

// ClusterOpts controls ClusteredBoxes.
type ClusterOpts struct {
	Clusters  int     // number of cluster centres, default 8
	Lo, Hi    float64 // bounds for centres
	Spread    float64 // max offset of a box from its centre on each axis
	MaxExtent float64 // max box side length
}

// ClusteredBoxes 生成围绕若干随机中心聚集的矩形，模拟真实数据的空间偏斜
func ClusteredBoxes(n, dim int, opts ClusterOpts, seed int64) []geom.Region {
	if opts.Clusters <= 0 {
		opts.Clusters = 8
	}
	faker := gofakeit.New(seed)
	centres := make([][]float64, opts.Clusters)
	for i := range centres {
		centres[i] = make([]float64, dim)
		for d := range centres[i] {
			centres[i][d] = faker.Float64Range(opts.Lo, opts.Hi)
		}
	}
	out := make([]geom.Region, n)
	for i := range out {
		c := centres[faker.IntRange(0, opts.Clusters-1)]
		low := make([]float64, dim)
		high := make([]float64, dim)
		for d := range low {
			low[d] = c[d] + faker.Float64Range(-opts.Spread, opts.Spread)
			high[d] = low[d] + faker.Float64Range(0, opts.MaxExtent)
		}
		out[i] = mustRegion(low, high)
	}
	return out
}

func mustRegion(low, high []float64) geom.Region {
	r, err := geom.NewRegionFromCoords(low, high)
	if err != nil {
		panic(err)
	}
	return r
}

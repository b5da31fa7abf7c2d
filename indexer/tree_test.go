package indexer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math/rand"
	"slices"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ic-timon/mbrtree/geom"
)

func newTestTree(t *testing.T, capacity int, s SplitStrategy) *Tree {
	t.Helper()
	tr, err := New(2, capacity, s)
	require.NoError(t, err)
	return tr
}

func ids(entries []Entry) []uint64 {
	out := make([]uint64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	slices.Sort(out)
	return out
}

func idBytes(id uint64) []byte {
	return binary.LittleEndian.AppendUint64(nil, id)
}

func randomBox(rnd *rand.Rand, maxStart, maxWidth float64) geom.Region {
	x, y := rnd.Float64()*maxStart, rnd.Float64()*maxStart
	r, err := geom.NewRegionFromCoords([]float64{x, y}, []float64{x + rnd.Float64()*maxWidth, y + rnd.Float64()*maxWidth})
	if err != nil {
		panic(err)
	}
	return r
}

func TestNewTreeConfig(t *testing.T) {
	tr, err := NewTree(nil)
	require.NoError(t, err)
	assert.Equal(t, 2, tr.Dimension())
	assert.Equal(t, 8, tr.NodeCapacity())
	assert.Equal(t, "Linear", tr.SplitStrategy().Name())
	assert.Equal(t, 1, tr.Height())
	assert.Equal(t, 0, tr.Size())
	assert.Equal(t, uint64(1), tr.NextID())
	assert.True(t, tr.Root().IsLeaf())

	for _, cfg := range []*Config{
		{Dimension: -1},
		{NodeCapacity: 1},
		{NodeCapacity: 8, MinEntries: 5},
	} {
		_, err := NewTree(cfg)
		assert.ErrorIs(t, err, ErrInvalidConfig, "%+v", cfg)
	}

	_, err = New(0, 8, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = New(3, 1, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	tr, err = New(3, 16, RStarSplit{})
	require.NoError(t, err)
	assert.Equal(t, 3, tr.Dimension())
	assert.Equal(t, 8, tr.Config().MinEntries)
	assert.Equal(t, "RStar", tr.SplitStrategy().Name())
}

func TestRootSplitOnOverflow(t *testing.T) {
	tr := newTestTree(t, 4, nil)
	for i := 0; i < 5; i++ {
		require.NoError(t, tr.Insert(idBytes(uint64(i)), pointRegion(float64(i), 0), uint64(i)))
	}
	assert.Equal(t, 2, tr.Height())
	assert.Equal(t, 5, tr.Size())

	root, ok := tr.Root().(*InternalNode)
	require.True(t, ok)
	require.Equal(t, 2, root.Len())
	for _, c := range root.Children() {
		assert.True(t, c.IsLeaf())
	}

	all := tr.IntersectionQuery(mustRegion(t, []float64{0, 0}, []float64{4, 0}))
	assert.Equal(t, []uint64{0, 1, 2, 3, 4}, ids(all))
	require.NoError(t, tr.Validate())
}

func TestRemoveTwice(t *testing.T) {
	tr := newTestTree(t, 4, nil)
	require.NoError(t, tr.Insert([]byte("p"), pointRegion(10, 10), 7))
	assert.True(t, tr.Remove(7, pointRegion(10, 10)))
	assert.False(t, tr.Remove(7, pointRegion(10, 10)))
	assert.Equal(t, 0, tr.Size())
	assert.Equal(t, uint64(8), tr.NextID())
}

func TestPointQueryFiltersCandidates(t *testing.T) {
	tr := newTestTree(t, 4, nil)
	require.NoError(t, tr.Insert([]byte("a"), mustRegion(t, []float64{0, 0}, []float64{6, 6}), 1))
	require.NoError(t, tr.Insert([]byte("b"), mustRegion(t, []float64{5.5, 5.5}, []float64{9, 9}), 2))

	got := tr.PointQuery(geom.NewPoint(5, 5))
	require.Len(t, got, 1)
	assert.Equal(t, uint64(1), got[0].ID)
	assert.Equal(t, []byte("a"), got[0].Payload().Bytes())

	assert.Len(t, tr.IntersectionQuery(mustRegion(t, []float64{5, 5}, []float64{6, 6})), 2)
	assert.Empty(t, tr.PointQuery(geom.NewPoint(20, 20)))
	assert.Empty(t, tr.PointQuery(geom.NewPoint(5, 5, 5)))
}

func TestContainmentQuery(t *testing.T) {
	tr := newTestTree(t, 3, QuadraticSplit{})
	require.NoError(t, tr.Insert(nil, mustRegion(t, []float64{1, 1}, []float64{2, 2}), 1))
	require.NoError(t, tr.Insert(nil, mustRegion(t, []float64{3, 3}, []float64{12, 4}), 2))
	require.NoError(t, tr.Insert(nil, mustRegion(t, []float64{8, 8}, []float64{9, 9}), 3))
	require.NoError(t, tr.Insert(nil, mustRegion(t, []float64{-5, -5}, []float64{-4, -4}), 4))

	q := mustRegion(t, []float64{0, 0}, []float64{10, 10})
	assert.Equal(t, []uint64{1, 3}, ids(tr.ContainmentQuery(q)))
	assert.Equal(t, []uint64{1, 2, 3}, ids(tr.Search(q)))
}

func TestInsertRejectsBadRegion(t *testing.T) {
	tr := newTestTree(t, 4, nil)
	err := tr.Insert(nil, pointRegion(1, 2, 3), 1)
	assert.ErrorIs(t, err, geom.ErrDimensionMismatch)
	err = tr.Insert(nil, geom.Region{}, 1)
	assert.ErrorIs(t, err, geom.ErrEmptyRegion)
	assert.Equal(t, 0, tr.Size())
	assert.Equal(t, uint64(1), tr.NextID())

	assert.False(t, tr.Remove(1, pointRegion(1, 2, 3)))
	assert.Nil(t, tr.IntersectionQuery(pointRegion(1, 2, 3)))
}

func TestPayloadIsCopied(t *testing.T) {
	tr := newTestTree(t, 4, nil)
	data := []byte("hello")
	require.NoError(t, tr.Insert(data, pointRegion(1, 1), 1))
	data[0] = 'j'

	got := tr.PointQuery(geom.NewPoint(1, 1))
	require.Len(t, got, 1)
	out := got[0].Payload().Bytes()
	assert.Equal(t, "hello", string(out))
	out[0] = 'y'
	assert.Equal(t, "hello", string(tr.PointQuery(geom.NewPoint(1, 1))[0].Payload().Bytes()))
}

func TestInsertAuto(t *testing.T) {
	tr := newTestTree(t, 4, nil)
	id, err := tr.InsertAuto([]byte("a"), pointRegion(0, 0))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	require.NoError(t, tr.Insert([]byte("b"), pointRegion(1, 1), 41))
	id, err = tr.InsertAuto([]byte("c"), pointRegion(2, 2))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	require.NoError(t, tr.Insert([]byte("d"), pointRegion(3, 3), 5))
	assert.Equal(t, uint64(43), tr.NextID())

	_, err = tr.InsertAuto(nil, geom.Region{})
	assert.ErrorIs(t, err, geom.ErrEmptyRegion)
	assert.Equal(t, uint64(43), tr.NextID())
}

func TestNodesAreReadOnly(t *testing.T) {
	tr := newTestTree(t, 4, LinearSplit{})
	for i := uint64(1); i <= 9; i++ {
		require.NoError(t, tr.Insert([]byte{byte(i)}, pointRegion(float64(i), 0), i))
	}
	type remover interface {
		Remove(id uint64, region geom.Region) bool
	}
	tr.Walk(func(n Node, _ int) bool {
		_, ok := n.(remover)
		assert.False(t, ok, "node %d", n.ID())
		return true
	})
	require.True(t, tr.Remove(3, pointRegion(3, 0)))
	assert.Equal(t, 8, tr.Size())
	require.NoError(t, tr.Validate())
}

func TestRootShrinksOnRemove(t *testing.T) {
	tr := newTestTree(t, 4, RStarSplit{})
	var regions []geom.Region
	for i := 0; i < 40; i++ {
		r := pointRegion(float64(i%7), float64(i/7))
		regions = append(regions, r)
		require.NoError(t, tr.Insert(idBytes(uint64(i)), r, uint64(i)))
	}
	require.Greater(t, tr.Height(), 2)

	for i := 39; i > 0; i-- {
		require.True(t, tr.Remove(uint64(i), regions[i]), "remove %d", i)
		require.NoError(t, tr.Validate(), "after removing %d", i)
	}
	assert.Equal(t, 1, tr.Size())
	assert.Equal(t, 1, tr.Height())
	assert.True(t, tr.Root().IsLeaf())
	assert.Nil(t, tr.Root().Parent())

	require.True(t, tr.Remove(0, regions[0]))
	assert.Equal(t, 0, tr.Size())
	assert.Equal(t, 1, tr.Height())
	assert.True(t, tr.Root().IsEmpty())
	assert.Empty(t, tr.IntersectionQuery(mustRegion(t, []float64{-1, -1}, []float64{100, 100})))
	require.NoError(t, tr.Validate())

	// tree is reusable after being emptied
	require.NoError(t, tr.Insert(nil, pointRegion(1, 1), 100))
	assert.Len(t, tr.PointQuery(geom.NewPoint(1, 1)), 1)
}

func TestSetSplitStrategy(t *testing.T) {
	tr := newTestTree(t, 4, nil)
	rnd := rand.New(rand.NewSource(3))
	for i := 0; i < 30; i++ {
		require.NoError(t, tr.Insert(nil, randomBox(rnd, 100, 5), uint64(i)))
	}
	before := testutil.ToFloat64(splitsTotal.WithLabelValues("RStar", "leaf"))

	tr.SetSplitStrategy(RStarSplit{})
	assert.Equal(t, "RStar", tr.SplitStrategy().Name())
	assert.Equal(t, "RStar", tr.Config().Split.Name())
	for i := 30; i < 90; i++ {
		require.NoError(t, tr.Insert(nil, randomBox(rnd, 100, 5), uint64(i)))
	}
	assert.Greater(t, testutil.ToFloat64(splitsTotal.WithLabelValues("RStar", "leaf")), before)
	assert.Equal(t, 90, tr.Size())
	require.NoError(t, tr.Validate())

	tr.SetSplitStrategy(nil)
	assert.Equal(t, "Linear", tr.SplitStrategy().Name())
}

func TestMetrics(t *testing.T) {
	tr := newTestTree(t, 4, nil)
	inserts := testutil.ToFloat64(insertsTotal)
	hits := testutil.ToFloat64(removesTotal.WithLabelValues("hit"))
	misses := testutil.ToFloat64(removesTotal.WithLabelValues("miss"))
	points := testutil.ToFloat64(queriesTotal.WithLabelValues("point"))
	grows := testutil.ToFloat64(rootChangesTotal.WithLabelValues("grow"))

	for i := 0; i < 5; i++ {
		require.NoError(t, tr.Insert(nil, pointRegion(float64(i), 0), uint64(i)))
	}
	tr.Remove(0, pointRegion(0, 0))
	tr.Remove(0, pointRegion(0, 0))
	tr.PointQuery(geom.NewPoint(1, 0))

	assert.Equal(t, inserts+5, testutil.ToFloat64(insertsTotal))
	assert.Equal(t, hits+1, testutil.ToFloat64(removesTotal.WithLabelValues("hit")))
	assert.Equal(t, misses+1, testutil.ToFloat64(removesTotal.WithLabelValues("miss")))
	assert.Equal(t, points+1, testutil.ToFloat64(queriesTotal.WithLabelValues("point")))
	assert.Equal(t, grows+1, testutil.ToFloat64(rootChangesTotal.WithLabelValues("grow")))
}

func TestStatsAndDump(t *testing.T) {
	tr := newTestTree(t, 4, QuadraticSplit{})
	for i := 0; i < 20; i++ {
		require.NoError(t, tr.Insert([]byte("x"), pointRegion(float64(i), float64(i)), uint64(i)))
	}
	s := tr.Stats()
	assert.Equal(t, tr.Height(), s.Height)
	assert.Equal(t, 20, s.Size)
	assert.Equal(t, 4, s.NodeCapacity)
	assert.Equal(t, 2, s.MinEntries)
	assert.Equal(t, "Quadratic", s.Strategy)
	assert.GreaterOrEqual(t, s.Leaves, 5)
	assert.Greater(t, s.Nodes, s.Leaves)
	assert.Contains(t, s.String(), "Split Strategy: Quadratic")

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logger.Info("stats", "tree", s)
	assert.Contains(t, buf.String(), `"tree":{"height":`)
	assert.Contains(t, buf.String(), `"strategy":"Quadratic"`)

	dump := tr.Dump(true)
	assert.True(t, strings.HasPrefix(dump, "internal "))
	assert.Equal(t, s.Nodes, strings.Count(dump, "internal ")+strings.Count(dump, "leaf "))
	assert.Equal(t, 20, strings.Count(dump, " bytes)"))
	assert.NotContains(t, tr.Dump(false), "bytes)")

	depths := map[int]int{}
	tr.Walk(func(n Node, depth int) bool {
		depths[depth]++
		return depth < 1
	})
	assert.Equal(t, 1, depths[0])
	assert.Zero(t, depths[2], "walk must stop descending when fn returns false")
}

func TestValidateDetectsCorruption(t *testing.T) {
	tr := newTestTree(t, 4, nil)
	for i := 0; i < 12; i++ {
		require.NoError(t, tr.Insert(nil, pointRegion(float64(i), 0), uint64(i)))
	}
	require.NoError(t, tr.Validate())

	tr.size++
	root := tr.Root().(*InternalNode)
	root.mbr = pointRegion(0, 0)
	err := tr.Validate()
	require.ErrorIs(t, err, ErrInvariantViolation)
	assert.Contains(t, err.Error(), "size 13, found 12 payloads")
	assert.Contains(t, err.Error(), "mbr")
}

// TestRandom 随机插入删除，每步后检查全部结构不变量
func TestRandom(t *testing.T) {
	for _, capacity := range []int{2, 3, 4, 8, 16} {
		for _, s := range allStrategies {
			for _, population := range []int{0, 1, 20, 200} {
				name := fmt.Sprintf("cap=%d/%s/n=%d", capacity, s.Name(), population)
				t.Run(name, func(t *testing.T) {
					rnd := rand.New(rand.NewSource(int64(capacity*1000 + population)))
					tr := newTestTree(t, capacity, s)
					boxes := make(map[uint64]geom.Region, population)
					for i := 0; i < population; i++ {
						box := randomBox(rnd, 0.9, 0.1)
						require.NoError(t, tr.Insert(idBytes(uint64(i)), box, uint64(i)))
						boxes[uint64(i)] = box
						require.NoError(t, tr.Validate())
					}
					checkQueries(t, rnd, tr, boxes)

					for id := range boxes {
						if rnd.Intn(2) == 0 {
							continue
						}
						require.True(t, tr.Remove(id, boxes[id]))
						delete(boxes, id)
						require.NoError(t, tr.Validate())
					}
					assert.Equal(t, len(boxes), tr.Size())
					checkQueries(t, rnd, tr, boxes)
				})
			}
		}
	}
}

// checkQueries 与暴力扫描结果比对
func checkQueries(t *testing.T, rnd *rand.Rand, tr *Tree, boxes map[uint64]geom.Region) {
	t.Helper()
	for i := 0; i < 10; i++ {
		q := randomBox(rnd, 0.5, 0.5)
		var wantHit, wantContained []uint64
		for id, b := range boxes {
			if b.Intersects(q) {
				wantHit = append(wantHit, id)
			}
			if q.ContainsRegion(b) {
				wantContained = append(wantContained, id)
			}
		}
		slices.Sort(wantHit)
		slices.Sort(wantContained)
		assert.Equal(t, wantHit, nilIfEmpty(ids(tr.IntersectionQuery(q))))
		assert.Equal(t, wantContained, nilIfEmpty(ids(tr.ContainmentQuery(q))))

		p := q.Center()
		var wantPoint []uint64
		for id, b := range boxes {
			if b.ContainsPoint(p) {
				wantPoint = append(wantPoint, id)
			}
		}
		slices.Sort(wantPoint)
		assert.Equal(t, wantPoint, nilIfEmpty(ids(tr.PointQuery(p))))
	}
	for id, b := range boxes {
		assert.Contains(t, ids(tr.IntersectionQuery(b)), id)
	}
}

func nilIfEmpty(s []uint64) []uint64 {
	if len(s) == 0 {
		return nil
	}
	return s
}

func BenchmarkInsert(b *testing.B) {
	for _, s := range allStrategies {
		b.Run(s.Name(), func(b *testing.B) {
			rnd := rand.New(rand.NewSource(1))
			tr, err := New(2, 16, s)
			require.NoError(b, err)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := tr.Insert(nil, randomBox(rnd, 1000, 5), uint64(i)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkSearch(b *testing.B) {
	rnd := rand.New(rand.NewSource(1))
	tr, err := New(2, 16, RStarSplit{})
	require.NoError(b, err)
	for i := 0; i < 10000; i++ {
		require.NoError(b, tr.Insert(nil, randomBox(rnd, 1000, 5), uint64(i)))
	}
	q := mustRegion(b, []float64{250, 250}, []float64{300, 300})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.IntersectionQuery(q)
	}
}

func TestIntersectionQueryBatch(t *testing.T) {
	tr := newTestTree(t, 8, RStarSplit{})
	rnd := rand.New(rand.NewSource(21))
	for i := 0; i < 500; i++ {
		require.NoError(t, tr.Insert(nil, randomBox(rnd, 100, 4), uint64(i)))
	}
	queries := make([]geom.Region, 64)
	for i := range queries {
		queries[i] = randomBox(rnd, 90, 15)
	}
	for _, workers := range []int{0, 1, 4, 100} {
		got := tr.IntersectionQueryBatch(queries, workers)
		require.Len(t, got, len(queries))
		for i, q := range queries {
			assert.Equal(t, ids(tr.IntersectionQuery(q)), ids(got[i]), "workers=%d query %d", workers, i)
		}
	}
	assert.Empty(t, tr.IntersectionQueryBatch(nil, 4))
}

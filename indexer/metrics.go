package indexer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var insertsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "mbrtree_inserts_total",
	Help: "Number of entries inserted",
})

var removesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mbrtree_removes_total",
	Help: "Number of remove calls by result",
}, []string{"result"})

var queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mbrtree_queries_total",
	Help: "Number of queries by kind",
}, []string{"kind"})

var splitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mbrtree_splits_total",
	Help: "Number of node splits by strategy and node kind",
}, []string{"strategy", "node"})

var rootChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mbrtree_root_changes_total",
	Help: "Number of root replacements (grow, shrink, reset)",
}, []string{"change"})

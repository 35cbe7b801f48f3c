package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SearchTotal counts pipeline runs
	SearchTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studybank_search_total",
		Help: "Total number of query pipeline runs",
	})

	// SearchDuration observes pipeline latency
	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "studybank_search_duration_seconds",
		Help:    "Duration of query pipeline runs",
		Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5},
	})

	// SearchResults observes the size of the final result set
	SearchResults = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "studybank_search_results",
		Help:    "Number of questions returned per pipeline run",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 200, 500},
	})

	// AnswerWrites counts answer store mutations by operation
	AnswerWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studybank_answer_writes_total",
		Help: "Answer store writes by operation",
	}, []string{"op"})

	// Imports counts answer imports by result
	Imports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studybank_imports_total",
		Help: "Answer imports by result",
	}, []string{"result"})
)

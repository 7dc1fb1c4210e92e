package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UserRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snipbin_user_registered_total",
		Help: "no. of users registered",
	})
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snipbin_login_attempts_total",
			Help: "no. of login attempts by outcome",
		},
		[]string{"outcome"},
	)
	TokenRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snipbin_token_rejected_total",
		Help: "no. of bearer tokens rejected",
	})
	SnippetCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snipbin_snippet_created_total",
		Help: "no. of snippets created",
	})
	SnippetRetrieved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snipbin_snippet_retrieved_total",
		Help: "no. of snippets retrieved",
	})
	SnippetUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snipbin_snippet_updated_total",
		Help: "no. of snippets updated",
	})
	SnippetDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snipbin_snippet_deleted_total",
		Help: "no. of snippets deleted",
	})
	ShareLinkIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snipbin_share_link_issued_total",
		Help: "no. of share links issued",
	})
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snipbin_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snipbin_rate_limit_hits_total",
			Help: "no. of rate limit violations",
		},
		[]string{"endpoint"},
	)
	RecentErrorRatePercent = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "snipbin_recent_error_rate_percent",
		Help: "5min rolling avg error rate percentage",
	})
)

func Init() {
}

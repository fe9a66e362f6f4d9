package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the domain lifecycle. Counters track
// creations and archivals per entity; the cascade histogram records how many
// subcategories each category archival swept along.
type Metrics struct {
	UserRegistered   prometheus.Counter
	UserDeactivated  prometheus.Counter
	ProfileCreated   prometheus.Counter
	ProfileArchived  prometheus.Counter
	CategoryCreated  prometheus.Counter
	CategoryArchived prometheus.Counter
	CascadeArchived  prometheus.Histogram
	AccountCreated   prometheus.Counter
	AccountArchived  prometheus.Counter
}

// New creates a Metrics instance with all lifecycle metrics registered on
// the default registry.
func New() *Metrics {
	return &Metrics{
		UserRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orfin_users_registered_total",
			Help: "Total number of users registered",
		}),
		UserDeactivated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orfin_users_deactivated_total",
			Help: "Total number of users deactivated",
		}),
		ProfileCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orfin_profiles_created_total",
			Help: "Total number of relative profiles created",
		}),
		ProfileArchived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orfin_profiles_archived_total",
			Help: "Total number of relative profiles archived",
		}),
		CategoryCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orfin_categories_created_total",
			Help: "Total number of categories created",
		}),
		CategoryArchived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orfin_categories_archived_total",
			Help: "Total number of categories archived (cascade children included)",
		}),
		CascadeArchived: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "orfin_category_cascade_size",
			Help:    "Number of subcategories archived per category archival",
			Buckets: []float64{0, 1, 2, 5, 10, 20},
		}),
		AccountCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orfin_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		AccountArchived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orfin_accounts_archived_total",
			Help: "Total number of accounts archived",
		}),
	}
}

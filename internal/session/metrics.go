package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the engine's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	SessionsStarted     prometheus.Counter
	SessionsEvicted     prometheus.Counter
	QuestionsAnswered   prometheus.Counter
	OnboardingCompleted prometheus.Counter
	NodesCompleted      prometheus.Counter
	RewardPoints        prometheus.Counter
	OperationErrors     *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg (nil registers nothing). When
// store is non-nil an active sessions gauge is registered as well.
func NewMetrics(reg prometheus.Registerer, store *Store) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{
		SessionsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "learning_sessions_started_total",
			Help: "Total number of sessions started",
		}),
		SessionsEvicted: f.NewCounter(prometheus.CounterOpts{
			Name: "learning_sessions_evicted_total",
			Help: "Total number of expired sessions removed by the janitor",
		}),
		QuestionsAnswered: f.NewCounter(prometheus.CounterOpts{
			Name: "learning_questions_answered_total",
			Help: "Total number of onboarding answers accepted",
		}),
		OnboardingCompleted: f.NewCounter(prometheus.CounterOpts{
			Name: "learning_onboarding_completed_total",
			Help: "Total number of sessions that finished onboarding",
		}),
		NodesCompleted: f.NewCounter(prometheus.CounterOpts{
			Name: "learning_nodes_completed_total",
			Help: "Total number of first-time node completions",
		}),
		RewardPoints: f.NewCounter(prometheus.CounterOpts{
			Name: "learning_reward_points_total",
			Help: "Total reward points awarded",
		}),
		OperationErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "learning_operation_errors_total",
			Help: "Failed engine operations by operation and error kind",
		}, []string{"op", "kind"}),
	}
	if store != nil {
		f.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "learning_sessions_active",
			Help: "Sessions currently held in memory, including expired ones not yet swept",
		}, func() float64 { return float64(store.Len()) })
	}
	return m
}

func (m *Metrics) sessionStarted() {
	if m != nil {
		m.SessionsStarted.Inc()
	}
}

func (m *Metrics) sessionsEvicted(n int) {
	if m != nil {
		m.SessionsEvicted.Add(float64(n))
	}
}

func (m *Metrics) questionAnswered(completed bool) {
	if m == nil {
		return
	}
	m.QuestionsAnswered.Inc()
	if completed {
		m.OnboardingCompleted.Inc()
	}
}

func (m *Metrics) nodeCompleted(points int) {
	if m != nil {
		m.NodesCompleted.Inc()
		m.RewardPoints.Add(float64(points))
	}
}

func (m *Metrics) operationFailed(op, kind string) {
	if m != nil {
		m.OperationErrors.WithLabelValues(op, kind).Inc()
	}
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 派发结果标签
const (
	OutcomeSent    = "sent"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Metrics 复习提醒相关的 Prometheus 指标
// 所有方法对 nil 接收者安全，未启用指标时传 nil 即可
type Metrics struct {
	RemindersScheduled  prometheus.Counter
	ScheduleFailures    prometheus.Counter
	RemindersDispatched *prometheus.CounterVec
	DueReminders        prometheus.Gauge
	DispatchDuration    prometheus.Histogram
}

// New 在给定注册表上创建并注册指标
func New(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RemindersScheduled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_scheduled_total",
			Help:      "Total number of review reminders created by the scheduler",
		}),
		ScheduleFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_schedule_failures_total",
			Help:      "Total number of swallowed scheduling failures",
		}),
		RemindersDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_dispatched_total",
			Help:      "Total number of due reminders processed by dispatch, by outcome",
		}, []string{"outcome"}),
		DueReminders: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reminders_due",
			Help:      "Number of due pending reminders fetched by the last dispatch pass",
		}),
		DispatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reminder_dispatch_duration_seconds",
			Help:      "Duration of a dispatch pass",
			Buckets:   []float64{.05, .1, .5, 1, 5, 15, 60},
		}),
	}
}

// AddScheduled 记录新建的提醒数量
func (m *Metrics) AddScheduled(n int) {
	if m == nil {
		return
	}
	m.RemindersScheduled.Add(float64(n))
}

// IncScheduleFailure 记录一次被吞掉的排程失败
func (m *Metrics) IncScheduleFailure() {
	if m == nil {
		return
	}
	m.ScheduleFailures.Inc()
}

// IncDispatched 按结果记录派发
func (m *Metrics) IncDispatched(outcome string) {
	if m == nil {
		return
	}
	m.RemindersDispatched.WithLabelValues(outcome).Inc()
}

// SetDue 设置本轮待派发数量
func (m *Metrics) SetDue(n int) {
	if m == nil {
		return
	}
	m.DueReminders.Set(float64(n))
}

// ObserveDispatchDuration 记录一轮派发耗时（秒）
func (m *Metrics) ObserveDispatchDuration(seconds float64) {
	if m == nil {
		return
	}
	m.DispatchDuration.Observe(seconds)
}

package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "campusdash"

// StoreMetrics 下单、支付与群发相关指标，零值与 nil 均可安全调用
type StoreMetrics struct {
	placements     *prometheus.CounterVec
	placementTime  *prometheus.HistogramVec
	paymentStatus  *prometheus.CounterVec
	gatewayCalls   *prometheus.CounterVec
	broadcastBatch *prometheus.HistogramVec
	deliveryVerify *prometheus.CounterVec
}

// NewStoreMetrics 在给定 Registerer 上注册指标，reg 为 nil 时返回空实现
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	m := &StoreMetrics{
		placements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_placements_total",
			Help:      "Order placement attempts by trigger and outcome.",
		}, []string{"trigger", "outcome"}),
		placementTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_placement_duration_seconds",
			Help:      "Duration of order placement transactions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"trigger"}),
		paymentStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_transitions_total",
			Help:      "Payment state transitions by provider and status.",
		}, []string{"provider", "status"}),
		gatewayCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_requests_total",
			Help:      "Mobile money gateway requests by operation and result.",
		}, []string{"operation", "result"}),
		broadcastBatch: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "broadcast_batch_size",
			Help:      "Recipients per notification broadcast batch.",
			Buckets:   []float64{1, 10, 50, 100, 250, 500, 1000},
		}, []string{"status"}),
		deliveryVerify: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_verifications_total",
			Help:      "Delivery verification attempts by method and outcome.",
		}, []string{"method", "outcome"}),
	}
	reg.MustRegister(m.placements, m.placementTime, m.paymentStatus, m.gatewayCalls, m.broadcastBatch, m.deliveryVerify)
	return m
}

// ObservePlacement 记录一次下单尝试
func (m *StoreMetrics) ObservePlacement(trigger, outcome string, duration time.Duration) {
	if m == nil || m.placements == nil {
		return
	}
	m.placements.WithLabelValues(normalizeLabel(trigger), normalizeLabel(outcome)).Inc()
	m.placementTime.WithLabelValues(normalizeLabel(trigger)).Observe(duration.Seconds())
}

// IncPaymentTransition 记录支付状态变更
func (m *StoreMetrics) IncPaymentTransition(provider, status string) {
	if m == nil || m.paymentStatus == nil {
		return
	}
	m.paymentStatus.WithLabelValues(normalizeLabel(provider), normalizeLabel(status)).Inc()
}

// IncGatewayCall 记录网关调用
func (m *StoreMetrics) IncGatewayCall(operation string, err error) {
	if m == nil || m.gatewayCalls == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.gatewayCalls.WithLabelValues(normalizeLabel(operation), result).Inc()
}

// ObserveBroadcastBatch 记录群发批次大小
func (m *StoreMetrics) ObserveBroadcastBatch(status string, recipients int) {
	if m == nil || m.broadcastBatch == nil {
		return
	}
	m.broadcastBatch.WithLabelValues(normalizeLabel(status)).Observe(float64(recipients))
}

// IncDeliveryVerification 记录签收核验
func (m *StoreMetrics) IncDeliveryVerification(method, outcome string) {
	if m == nil || m.deliveryVerify == nil {
		return
	}
	m.deliveryVerify.WithLabelValues(normalizeLabel(method), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return value
}

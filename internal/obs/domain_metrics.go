package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CartSessionsTotal counts checkout sessions opened.
	CartSessionsTotal prometheus.Counter
	// CartItemsAddedTotal counts line-item add operations by outcome.
	CartItemsAddedTotal *prometheus.CounterVec
	// CouponsAppliedTotal counts coupon application attempts by outcome.
	CouponsAppliedTotal *prometheus.CounterVec
	// SalesSubmittedTotal counts sale submissions by outcome.
	SalesSubmittedTotal *prometheus.CounterVec
	// EventsEmittedTotal counts domain events by topic.
	EventsEmittedTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CartSessionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_sessions_total",
			Help:      "Number of checkout sessions opened.",
		})
		CartItemsAddedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_items_added_total",
			Help:      "Count of line-item add operations by outcome.",
		}, []string{"result"})
		CouponsAppliedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupons_applied_total",
			Help:      "Count of coupon application attempts by outcome.",
		}, []string{"result"})
		SalesSubmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_submitted_total",
			Help:      "Count of sale submissions by outcome.",
		}, []string{"result"})
		EventsEmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_emitted_total",
			Help:      "Count of domain events emitted by topic.",
		}, []string{"topic"})

		mustRegisterCollector(reg, CartSessionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				CartSessionsTotal = v
			}
		})
		mustRegisterCollector(reg, CartItemsAddedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CartItemsAddedTotal = v
			}
		})
		mustRegisterCollector(reg, CouponsAppliedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CouponsAppliedTotal = v
			}
		})
		mustRegisterCollector(reg, SalesSubmittedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SalesSubmittedTotal = v
			}
		})
		mustRegisterCollector(reg, EventsEmittedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				EventsEmittedTotal = v
			}
		})
	})
}

// CountCartSession records a newly opened checkout session. Safe to call
// before MustRegisterDomainMetrics.
func CountCartSession() {
	if CartSessionsTotal != nil {
		CartSessionsTotal.Inc()
	}
}

// CountItemAdded records an add-to-order attempt by outcome.
func CountItemAdded(result string) {
	if CartItemsAddedTotal != nil {
		CartItemsAddedTotal.WithLabelValues(result).Inc()
	}
}

// CountCouponApplied records a coupon application attempt by outcome.
func CountCouponApplied(result string) {
	if CouponsAppliedTotal != nil {
		CouponsAppliedTotal.WithLabelValues(result).Inc()
	}
}

// CountSaleSubmitted records a sale submission by outcome.
func CountSaleSubmitted(result string) {
	if SalesSubmittedTotal != nil {
		SalesSubmittedTotal.WithLabelValues(result).Inc()
	}
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}

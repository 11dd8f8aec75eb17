package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	paymentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_created_total",
		Help: "Payments successfully created at the gateway, by channel.",
	}, []string{"channel", "archetype"})

	gatewayFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_failures_total",
		Help: "Upstream gateway failures by kind (rejected, unreachable).",
	}, []string{"kind"})

	duplicateOrders = promauto.NewCounter(prometheus.CounterOpts{
		Name: "duplicate_orders_total",
		Help: "Order submissions collapsed by the duplicate window.",
	})

	notificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notification_failures_total",
		Help: "Payment notifications that failed to deliver.",
	})
)

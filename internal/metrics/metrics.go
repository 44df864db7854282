package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "parish"

// Workflow counts credential workflow operations by outcome and e-mail
// deliveries by template.
type Workflow struct {
	operations    *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

func NewWorkflow(registerer prometheus.Registerer) *Workflow {
	workflow := &Workflow{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "operations_total",
			Help:      "Credential workflow operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "messages_total",
			Help:      "Workflow e-mails by template and delivery result.",
		}, []string{"template", "result"}),
	}
	if registerer != nil {
		registerer.MustRegister(workflow.operations, workflow.notifications)
	}
	return workflow
}

func (workflow *Workflow) RecordOperation(operation string, outcome string) {
	workflow.operations.WithLabelValues(operation, outcome).Inc()
}

func (workflow *Workflow) RecordNotification(template string, delivered bool) {
	result := "failed"
	if delivered {
		result = "delivered"
	}
	workflow.notifications.WithLabelValues(template, result).Inc()
}

// Handler exposes the gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var m *TerminalMetrics
	m.IncSaleSubmitted("dinheiro")
	m.IncSaleFailed("TRANSPORT_ERROR")
	m.IncScanDetected()
	m.IncScanUnmatched()
	m.ObserveRequest("create_sale", time.Second)
}

func TestUnregisteredIsSafe(t *testing.T) {
	t.Parallel()

	m := NewTerminalMetrics(nil)
	m.IncSaleSubmitted("pix")
	m.ObserveRequest("list_products", time.Millisecond)
}

func TestCountersIncrement(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewTerminalMetrics(reg)

	m.IncSaleSubmitted("dinheiro")
	m.IncSaleSubmitted("dinheiro")
	m.IncSaleFailed("")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	if got := counterValue(families, "pdv_sales_submitted_total", "method", "dinheiro"); got != 2 {
		t.Fatalf("unexpected submitted count: %v", got)
	}
	if got := counterValue(families, "pdv_sales_failed_total", "code", "unknown"); got != 1 {
		t.Fatalf("unexpected failed count: %v", got)
	}
}

func counterValue(families []*dto.MetricFamily, name, labelName, labelValue string) float64 {
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == labelName && label.GetValue() == labelValue {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return -1
}

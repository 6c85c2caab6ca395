package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
)

func TestTicketMetricsExportsCountersAndHistograms(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewTicketMetrics(reg)
	m.IncTransition("quoted", "accepted")
	m.IncTransition("quoted", "accepted")
	m.IncRejected("transition", "PRECONDITION_NOT_MET")
	m.IncRejected("", "")
	m.ObservePayout(decimal.RequireFromString("542.75"))
	m.ObserveDuration("transition", 0.02)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "ticket_transitions_total", map[string]string{"from": "quoted", "to": "accepted"}); err != nil {
		t.Fatalf("fetch transitions: %v", err)
	} else if got != 2 {
		t.Fatalf("expected transitions=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "ticket_commands_rejected_total", map[string]string{"operation": "transition", "code": "PRECONDITION_NOT_MET"}); err != nil {
		t.Fatalf("fetch rejected: %v", err)
	} else if got != 1 {
		t.Fatalf("expected rejected=1, got %f", got)
	}

	if _, err := fetchCounterValue(mfs, "ticket_commands_rejected_total", map[string]string{"operation": "unknown", "code": "unknown"}); err != nil {
		t.Fatalf("empty labels should normalize: %v", err)
	}

	payout := findMetricFamily(mfs, "ticket_payout_amount")
	if payout == nil || payout.GetMetric()[0].GetHistogram().GetSampleSum() != 542.75 {
		t.Fatalf("expected payout histogram sum 542.75")
	}
}

func TestTicketMetricsNilSafe(t *testing.T) {
	var m *TicketMetrics
	m.IncTransition("a", "b")
	m.IncRejected("op", "code")
	m.ObservePayout(decimal.NewFromInt(1))

	unregistered := NewTicketMetrics(nil)
	unregistered.IncTransition("a", "b")
	unregistered.ObserveDuration("op", 1)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}

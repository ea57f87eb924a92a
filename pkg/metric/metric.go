// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metric

import (
	metrics "github.com/luxfi/metric"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all marketplace instrumentation using luxfi/metric
type Metrics struct {
	metricsInstance metrics.Metrics

	// Marketplace metrics
	SlotsCreated   metrics.Counter
	SlotsPurchased metrics.Counter
	BidsPlaced     metrics.Counter
	AuctionsClosed metrics.Counter
	AdsCreated     metrics.Counter

	// Escrow metrics
	EscrowsCreated  metrics.Counter
	EscrowsReleased metrics.Counter
	EscrowsRefunded metrics.Counter
	EscrowVolume    metrics.Counter

	// Instruction metrics
	InstructionsProcessed metrics.CounterVec
	InstructionDuration   metrics.Histogram
}

// NewMetrics creates a new metrics instance using luxfi/metric
func NewMetrics() (*Metrics, error) {
	factory := metrics.NewPrometheusFactory()
	metricsInstance := factory.New("admarket")

	m := &Metrics{
		metricsInstance: metricsInstance,
	}

	m.SlotsCreated = metricsInstance.NewCounter("slots_created_total", "Total number of ad slots created")
	m.SlotsPurchased = metricsInstance.NewCounter("slots_purchased_total", "Total number of fixed-price purchases")
	m.BidsPlaced = metricsInstance.NewCounter("bids_placed_total", "Total number of accepted bids")
	m.AuctionsClosed = metricsInstance.NewCounter("auctions_closed_total", "Total number of auctions closed")
	m.AdsCreated = metricsInstance.NewCounter("ads_created_total", "Total number of ads created")

	m.EscrowsCreated = metricsInstance.NewCounter("escrows_created_total", "Total number of escrows created")
	m.EscrowsReleased = metricsInstance.NewCounter("escrows_released_total", "Total number of escrows released")
	m.EscrowsRefunded = metricsInstance.NewCounter("escrows_refunded_total", "Total number of escrows refunded")
	m.EscrowVolume = metricsInstance.NewCounter("escrow_volume_total", "Total value locked into escrow, minor units")

	m.InstructionsProcessed = metricsInstance.NewCounterVec(
		"instructions_processed_total",
		"Total number of instructions processed by op and status",
		[]string{"op", "status"},
	)

	m.InstructionDuration = metricsInstance.NewHistogram(
		"instruction_duration_seconds",
		"Time to execute an instruction",
		prometheus.DefBuckets,
	)

	return m, nil
}

// GetGatherer returns the prometheus gatherer for metrics export
func (m *Metrics) GetGatherer() prometheus.Gatherer {
	if registry := m.metricsInstance.Registry(); registry != nil {
		return registry
	}
	return prometheus.DefaultGatherer
}

// GetRegisterer returns the prometheus registerer
func (m *Metrics) GetRegisterer() prometheus.Registerer {
	if registry := m.metricsInstance.Registry(); registry != nil {
		return registry
	}
	return prometheus.DefaultRegisterer
}

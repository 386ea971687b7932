package domain

import "time"

// AlertRecord is the last alert sent for one runner key. Records are written
// only after a confirmed delivery, so a failed send is retried on the next
// cycle rather than suppressed.
type AlertRecord struct {
	LastAlertTime time.Time
	LastEdge      float64
	LastBookPrice float64
	LastLayPrice  float64
}

// Snapshot is a lightweight price observation persisted for later analysis.
type Snapshot struct {
	SelectionKey string
	TS           time.Time
	MarketID     string
	Sport        string
	EventName    string
	RunnerName   string
	BackPrice    float64
	LayPrice     float64
	MidPrice     float64
	Volume       float64
}

package engine

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"
)

// EngineVersion is recorded in every run manifest.
const EngineVersion = "1.0.0"

// RunManifest ties a result to the exact inputs that produced it: a hash of
// the run configuration and a checksum of the bar series. CreatedAt is
// provenance metadata taken outside the simulation loop; the simulation
// outputs themselves depend only on (bars, config, strategy).
type RunManifest struct {
	RunID         string    `json:"run_id"`
	EngineVersion string    `json:"engine_version"`
	Strategy      string    `json:"strategy"`
	ConfigHash    string    `json:"config_hash"`
	DataChecksum  string    `json:"data_checksum"`
	BarCount      int       `json:"bar_count"`
	FirstBar      time.Time `json:"first_bar,omitempty"`
	LastBar       time.Time `json:"last_bar,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func newRunManifest(runID string, strat Strategy, cfg Config, bars []Bar) RunManifest {
	cfgBytes, _ := json.Marshal(cfg)
	m := RunManifest{
		RunID:         runID,
		EngineVersion: EngineVersion,
		Strategy:      strat.Name(),
		ConfigHash:    fmt.Sprintf("%x", sha256.Sum256(cfgBytes)),
		DataChecksum:  SeriesChecksum(bars),
		BarCount:      len(bars),
		CreatedAt:     time.Now().UTC(),
	}
	if len(bars) > 0 {
		m.FirstBar = bars[0].Timestamp
		m.LastBar = bars[len(bars)-1].Timestamp
	}
	return m
}

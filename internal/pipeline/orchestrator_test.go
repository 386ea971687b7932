package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/calebmorris/steamerbot/internal/config"
)

func cadenceConfig() config.EngineConfig {
	cfg := config.Defaults().Engine
	return cfg
}

func TestMatchDueAdaptiveCadence(t *testing.T) {
	now := time.Date(2026, 9, 12, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		inPlay    bool
		inPlayErr error
		sinceLast time.Duration
		want      bool
	}{
		{"pre-match, interval not elapsed", false, nil, 45 * time.Second, false},
		{"pre-match, interval elapsed", false, nil, 60 * time.Second, true},
		{"in-play tightens the interval", true, nil, 45 * time.Second, true},
		{"in-play, still too soon", true, nil, 20 * time.Second, false},
		{"in-play check failure falls back to pre-match", true, errors.New("db down"), 45 * time.Second, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeSelectionStore{inPlay: tt.inPlay, inPlayErr: tt.inPlayErr}
			o := NewOrchestrator(nil, nil, nil, nil, store, cadenceConfig(), discardLogger())
			o.now = func() time.Time { return now }
			o.lastMatch = now.Add(-tt.sinceLast)
			if got := o.matchDue(context.Background()); got != tt.want {
				t.Errorf("matchDue = %v, want %v", got, tt.want)
			}
		})
	}
}

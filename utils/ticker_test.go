package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTicker(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		wantCron bool
		wantErr  bool
	}{
		{name: "fallback", schedule: "", wantCron: false},
		{name: "descriptor", schedule: "@every 1s", wantCron: true},
		{name: "with seconds", schedule: "*/1 * * * * *", wantCron: true},
		{name: "explicit tz", schedule: "TZ=UTC 0 * * * *", wantCron: true},
		{name: "garbage", schedule: "not a schedule", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticker, err := NewTicker(tt.schedule, time.Hour)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer ticker.Stop()
			_, isCron := ticker.(*CronTicker)
			assert.Equal(t, tt.wantCron, isCron)
		})
	}
}

func TestCronTicker_Ticks(t *testing.T) {
	ticker, err := NewCronTicker("@every 1s")
	require.NoError(t, err)
	defer ticker.Stop()
	select {
	case <-ticker.Chan():
	case <-time.After(3 * time.Second):
		t.Fatal("no tick received")
	}
}

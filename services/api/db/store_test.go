package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"below minimum", 1, MinLimit},
		{"zero", 0, MinLimit},
		{"negative", -5, MinLimit},
		{"at minimum", MinLimit, MinLimit},
		{"in range", 250, 250},
		{"at maximum", MaxLimit, MaxLimit},
		{"above maximum", 50000, MaxLimit},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClampLimit(tc.limit))
		})
	}
}

func TestLatestWhere(t *testing.T) {
	t.Run("no filters", func(t *testing.T) {
		assert.Equal(t, "", latestWhere(LatestQuery{Source: SourceAll}))
	})

	t.Run("source real", func(t *testing.T) {
		assert.Equal(t, " WHERE is_simulated = FALSE", latestWhere(LatestQuery{Source: SourceReal}))
	})

	t.Run("source simulated", func(t *testing.T) {
		assert.Equal(t, " WHERE is_simulated = TRUE", latestWhere(LatestQuery{Source: SourceSimulated}))
	})

	// alerts_only shadows the source filter instead of combining with it;
	// the dashboard's alert history view expects alerting rows from every
	// source.
	t.Run("alerts only ignores source filter", func(t *testing.T) {
		clause := latestWhere(LatestQuery{Source: SourceReal, AlertsOnly: true})
		assert.Equal(t, " WHERE alert_status = TRUE", clause)
		assert.NotContains(t, clause, "is_simulated")
	})
}

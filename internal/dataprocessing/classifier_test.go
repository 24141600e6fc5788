package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepstats/pkg/contracts/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		fileName     string
		wantKey      string
		wantCategory domain.Category
		wantErr      error
	}{
		{
			name:         "standard scraper output name",
			fileName:     "pa_batting_stats.csv",
			wantKey:      "PA",
			wantCategory: domain.CategoryBatting,
		},
		{
			name:         "key already uppercase",
			fileName:     "AK_fielding_2024.csv",
			wantKey:      "AK",
			wantCategory: domain.CategoryFielding,
		},
		{
			name:         "category case-insensitive",
			fileName:     "de_PITCHING_stats.csv",
			wantKey:      "DE",
			wantCategory: domain.CategoryPitching,
		},
		{
			name:         "baserunning category",
			fileName:     "ca_baserunning_stats.csv",
			wantKey:      "CA",
			wantCategory: domain.CategoryBaserunning,
		},
		{
			name:         "full path is accepted",
			fileName:     "output/batting/pa_batting_stats.csv",
			wantKey:      "PA",
			wantCategory: domain.CategoryBatting,
		},
		{
			name:         "extra segments are ignored",
			fileName:     "tx_batting_stats_v2_final.csv",
			wantKey:      "TX",
			wantCategory: domain.CategoryBatting,
		},
		{
			name:     "missing second segment",
			fileName: "pa_batting.csv",
			wantErr:  ErrMalformedName,
		},
		{
			name:     "no underscores at all",
			fileName: "report.csv",
			wantErr:  ErrMalformedName,
		},
		{
			name:     "empty name",
			fileName: "",
			wantErr:  ErrMalformedName,
		},
		{
			name:     "unknown category",
			fileName: "pa_coaching_stats.csv",
			wantErr:  ErrUnknownCategory,
		},
		{
			name:     "category is a typo of a known one",
			fileName: "pa_battings_stats.csv",
			wantErr:  ErrUnknownCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.fileName)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, got.Key)
			assert.Equal(t, tt.wantCategory, got.Category)
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	first, err := Classify("ny_batting_stats.csv")
	require.NoError(t, err)

	second, err := Classify("ny_batting_stats.csv")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

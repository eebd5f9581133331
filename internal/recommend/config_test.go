// Recsys - Hybrid Game Store Recommendations
// SPDX-License-Identifier: AGPL-3.0-or-later

package recommend

import (
	"strings"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "keyword_weight_in_no_query_vector",
			mutate:  func(c *Config) { c.Weights.NoQuery.Keyword = 0.1 },
			wantErr: "no_query.keyword",
		},
		{
			name:    "zero_keyword_weight_in_query_vector",
			mutate:  func(c *Config) { c.Weights.Query.Keyword = 0 },
			wantErr: "query.keyword",
		},
		{
			name:    "negative_matrix_weight",
			mutate:  func(c *Config) { c.Matrix.FavoriteWeight = -1 },
			wantErr: "matrix weights",
		},
		{
			name:    "view_cap_below_view_weight",
			mutate:  func(c *Config) { c.Matrix.ViewCap = 0.1 },
			wantErr: "view_cap",
		},
		{
			name:    "negative_rank",
			mutate:  func(c *Config) { c.Collaborative.Rank = -1 },
			wantErr: "collaborative.rank",
		},
		{
			name:    "zero_collab_scale",
			mutate:  func(c *Config) { c.Normalize.CollabScale = 0 },
			wantErr: "collab_scale",
		},
		{
			name:    "min_factor_above_one",
			mutate:  func(c *Config) { c.Boost.MinFactor = 1.2 },
			wantErr: "min_factor",
		},
		{
			name:    "total_cap_below_max_factor",
			mutate:  func(c *Config) { c.Boost.TotalCap = 1.0 },
			wantErr: "total_cap",
		},
		{
			name:    "zero_retrain_every",
			mutate:  func(c *Config) { c.Training.RetrainEvery = 0 },
			wantErr: "retrain_every",
		},
		{
			name:    "max_k_below_default_k",
			mutate:  func(c *Config) { c.Limits.MaxK = 5 },
			wantErr: "max_k",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()

	clone.Limits.DefaultK = 99
	if cfg.Limits.DefaultK == 99 {
		t.Error("mutating clone changed the original")
	}
}

func TestWeightsSelect(t *testing.T) {
	cfg := DefaultConfig()

	if got := cfg.Weights.Select(false); got != cfg.Weights.NoQuery {
		t.Errorf("Select(false) = %+v, want no-query vector", got)
	}
	if got := cfg.Weights.Select(true); got != cfg.Weights.Query {
		t.Errorf("Select(true) = %+v, want query vector", got)
	}
}

func TestProfileOptionsDerivedFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Boost.WindowDays = 14
	cfg.Matrix.FavoriteWeight = 7

	opts := cfg.ProfileOptions()
	if opts.WindowDays != 14 {
		t.Errorf("WindowDays = %d, want 14", opts.WindowDays)
	}
	if opts.FavoriteWeight != 7 {
		t.Errorf("FavoriteWeight = %v, want 7", opts.FavoriteWeight)
	}
}

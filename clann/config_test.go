package clann

import "testing"

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(c Config) Config
		wantErr bool
	}{
		{"valid default", func(c Config) Config { return c }, false},
		{"zero num tables", func(c Config) Config { c.NumTables = 0; return c }, true},
		{"negative factor", func(c Config) Config { c.NumClustersFactor = -1; return c }, true},
		{"zero k", func(c Config) Config { c.K = 0; return c }, true},
		{"delta too high", func(c Config) Config { c.Delta = 1.5; return c }, true},
		{"delta zero", func(c Config) Config { c.Delta = 0; return c }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.mutate(DefaultConfig())
			err := cfg.validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestDefaultConfigMatchesDocumentedDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.NumTables != 10 {
		t.Fatalf("expected default num_tables=10, got %d", cfg.NumTables)
	}
	if cfg.BruteForceCutoff != DefaultBruteForceCutoff {
		t.Fatalf("expected default brute_force_cutoff=%d, got %d", DefaultBruteForceCutoff, cfg.BruteForceCutoff)
	}
}

func TestBruteForceCutoffDefaultsWhenZero(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BruteForceCutoff = 0
	if cfg.bruteForceCutoff() != DefaultBruteForceCutoff {
		t.Fatalf("expected default cutoff %d, got %d", DefaultBruteForceCutoff, cfg.bruteForceCutoff())
	}
}

package quant

import (
	"context"
	"testing"
)

func TestScalarQuantizerRoundTrip(t *testing.T) {
	cfg := DefaultConfig(ScalarQuantization)
	cfg.Bits = 8

	q, err := Create(cfg)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	vectors := [][]float32{
		{0.0, 1.0, -1.0, 0.5},
		{0.25, 0.75, -0.5, 0.1},
		{1.0, 0.0, 0.0, -1.0},
	}

	if err := q.Train(context.Background(), vectors); err != nil {
		t.Fatalf("Train: %v", err)
	}
	if !q.IsTrained() {
		t.Fatal("expected quantizer to be trained")
	}

	compressed, err := q.Compress(vectors[0])
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	decompressed, err := q.Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}

	if len(decompressed) != len(vectors[0]) {
		t.Fatalf("expected %d dims, got %d", len(vectors[0]), len(decompressed))
	}

	for i, v := range decompressed {
		diff := v - vectors[0][i]
		if diff < 0 {
			diff = -diff
		}
		if diff > 0.05 {
			t.Errorf("dim %d: decompressed %f too far from original %f", i, v, vectors[0][i])
		}
	}

	if q.CompressionRatio() <= 1 {
		t.Errorf("expected compression ratio > 1, got %f", q.CompressionRatio())
	}
}

func TestScalarQuantizerDistanceToQuery(t *testing.T) {
	cfg := DefaultConfig(ScalarQuantization)
	q, _ := Create(cfg)

	vectors := [][]float32{{0, 0, 0}, {1, 1, 1}}
	if err := q.Train(context.Background(), vectors); err != nil {
		t.Fatalf("Train: %v", err)
	}

	compressed, err := q.Compress([]float32{1, 1, 1})
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	d, err := q.DistanceToQuery(compressed, []float32{1, 1, 1})
	if err != nil {
		t.Fatalf("DistanceToQuery: %v", err)
	}
	if d > 0.05 {
		t.Errorf("expected near-zero distance to identical query, got %f", d)
	}
}

func TestRegistryRejectsUnregisteredType(t *testing.T) {
	cfg := DefaultConfig(ProductQuantization)
	if _, err := Create(cfg); err == nil {
		t.Fatal("expected error: no factory registered for product quantization in this module")
	}
}

func TestRegistrySupportedTypes(t *testing.T) {
	if !IsSupported(ScalarQuantization) {
		t.Fatal("expected scalar quantization to be supported")
	}
	if IsSupported(ProductQuantization) {
		t.Fatal("expected product quantization to be unsupported in this module")
	}
}

package treecode

import (
	"math/rand"
	"testing"
)

func generateFlatData(n, dims int) []float64 {
	rng := rand.New(rand.NewSource(42))
	return RandomPoints(rng, n, dims)
}

// --- Tree construction ---

func benchNewTree(b *testing.B, n int) {
	b.Helper()
	dims := 2
	data := generateFlatData(n, dims)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		NewTree(data, n, dims, 40)
	}
}

func BenchmarkNewTree_1000(b *testing.B)  { benchNewTree(b, 1000) }
func BenchmarkNewTree_10000(b *testing.B) { benchNewTree(b, 10000) }

// --- Nearest neighbors ---

func benchKNN(b *testing.B, n int, prune PruneMode, order ChildOrder) {
	b.Helper()
	sources := generateFlatData(n, 1)
	targets := RandomPoints(rand.New(rand.NewSource(7)), n, 1)
	cfg := KNNConfig{K: 5, Prune: prune, ChildOrder: order}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := KNN(targets, sources, n, n, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkKNN_NoPrune_1000(b *testing.B) { benchKNN(b, 1000, PruneNone, ChildOrderNatural) }
func BenchmarkKNN_Bounds_1000(b *testing.B)  { benchKNN(b, 1000, PruneBounds, ChildOrderNearest) }
func BenchmarkKNN_Bounds_10000(b *testing.B) { benchKNN(b, 10000, PruneBounds, ChildOrderNearest) }

func BenchmarkDirectKNN_1000(b *testing.B) {
	sources := generateFlatData(1000, 1)
	targets := RandomPoints(rand.New(rand.NewSource(7)), 1000, 1)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		DirectKNN(EuclideanMetric{}, targets, sources, 1000, 1000, 1, 5)
	}
}

// --- Compression and products ---

func benchCompress(b *testing.B, n, rank int) {
	b.Helper()
	data, targets, sources := compressCase(42, n, n, 1, smoothKernel)
	cfg := CompressConfig{MaxRank: rank, Tolerance: 1e-8}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Compress(data, n, n, targets, sources, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCompress_500(b *testing.B)  { benchCompress(b, 500, 8) }
func BenchmarkCompress_1000(b *testing.B) { benchCompress(b, 1000, 8) }

func benchProd(b *testing.B, n, workers int) {
	b.Helper()
	data, targets, sources := compressCase(42, n, n, 1, smoothKernel)
	bm, err := Compress(data, n, n, targets, sources, CompressConfig{MaxRank: 8, Tolerance: 1e-8, Workers: workers})
	if err != nil {
		b.Fatal(err)
	}
	x := generateFlatData(n, 1)
	y := make([]float64, n)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := bm.ProdAcc(x, y); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkProdAcc_2000_1Worker(b *testing.B)  { benchProd(b, 2000, 1) }
func BenchmarkProdAcc_2000_4Workers(b *testing.B) { benchProd(b, 2000, 4) }

func BenchmarkDirectProd_2000(b *testing.B) {
	data, _, _ := compressCase(42, 2000, 2000, 1, smoothKernel)
	x := generateFlatData(2000, 1)
	y := make([]float64, 2000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := DirectProd(data, 2000, 2000, x, y); err != nil {
			b.Fatal(err)
		}
	}
}

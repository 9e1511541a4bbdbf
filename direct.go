package treecode

import (
	"sync"

	"gonum.org/v1/gonum/mat"
)

// DirectKNN computes the k nearest sources of every target by comparing it
// against every source in original index order. It is the reference that
// tree searches are checked against. Points are flat row-major of
// dimensionality dims.
func DirectKNN(metric DistanceMetric, targets, sources []float64, nTargets, nSources, dims, k int) [][]Neighbor {
	results := make([][]Neighbor, nTargets)
	directRows(metric, targets, sources, nSources, dims, k, results, 0, nTargets)
	return results
}

// DirectKNNParallel is DirectKNN split across numWorkers goroutines, each
// handling a contiguous range of targets. Its result is identical to
// DirectKNN. If numWorkers <= 1, it falls back to DirectKNN.
func DirectKNNParallel(metric DistanceMetric, targets, sources []float64, nTargets, nSources, dims, k, numWorkers int) [][]Neighbor {
	if numWorkers <= 1 || nTargets <= 1 {
		return DirectKNN(metric, targets, sources, nTargets, nSources, dims, k)
	}

	results := make([][]Neighbor, nTargets)

	// Row ranges don't overlap, so no synchronization is needed for writes.
	var wg sync.WaitGroup
	rowsPerWorker := (nTargets + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		startRow := w * rowsPerWorker
		endRow := startRow + rowsPerWorker
		if endRow > nTargets {
			endRow = nTargets
		}
		if startRow >= nTargets {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			directRows(metric, targets, sources, nSources, dims, k, results, start, end)
		}(startRow, endRow)
	}

	wg.Wait()
	return results
}

func directRows(metric DistanceMetric, targets, sources []float64, nSources, dims, k int, results [][]Neighbor, start, end int) {
	kernel := KNNKernel{Metric: metric}
	for i := start; i < end; i++ {
		t := targets[i*dims : (i+1)*dims]
		r := NewNeighbors(k)
		for j := 0; j < nSources; j++ {
			r.Offer(kernel.Combine(kernel.Evaluate(t, sources[j*dims:(j+1)*dims]), j))
		}
		results[i] = r.Slice()
	}
}

// DirectProd computes y += A*x for the row-major rows×cols matrix in data.
func DirectProd(data []float64, rows, cols int, x, y []float64) error {
	if err := checkLen("matrix", len(data), rows*cols); err != nil {
		return err
	}
	if err := checkLen("charges", len(x), cols); err != nil {
		return err
	}
	if err := checkLen("results", len(y), rows); err != nil {
		return err
	}
	if rows == 0 || cols == 0 {
		return nil
	}

	a := mat.NewDense(rows, cols, data)
	var ax mat.VecDense
	ax.MulVec(a, mat.NewVecDense(cols, x))
	yv := mat.NewVecDense(rows, y)
	yv.AddVec(yv, &ax)
	return nil
}

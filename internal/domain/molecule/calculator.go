package molecule

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/ClusterMST/pkg/errors"
)

// Calculator fingerprints batches of structures on a bounded worker pool.
type Calculator struct {
	method  FingerprintMethod
	workers int
}

// NewCalculator returns a Calculator for method. workers < 1 uses GOMAXPROCS.
func NewCalculator(method FingerprintMethod, workers int) (*Calculator, error) {
	if _, ok := methodSpecs[method]; !ok {
		return nil, errors.Newf(errors.ErrCodeFingerprintTypeUnsupported, "unknown fingerprint method %q", method)
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Calculator{method: method, workers: workers}, nil
}

// Method returns the fingerprint method.
func (c *Calculator) Method() FingerprintMethod { return c.method }

// Calculate fingerprints a single structure.
func (c *Calculator) Calculate(ctx context.Context, smiles string) (*Fingerprint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return FingerprintSMILES(smiles, c.method)
}

// BatchCalculate fingerprints every entry of smiles. The returned slices are
// index-aligned with the input: a structure that fails to parse has a nil
// fingerprint and its error in errs. Only cancellation of ctx aborts the
// batch.
func (c *Calculator) BatchCalculate(ctx context.Context, smiles []string) (fps []*Fingerprint, errs []error, err error) {
	fps = make([]*Fingerprint, len(smiles))
	errs = make([]error, len(smiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i := range smiles {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fps[i], errs[i] = FingerprintSMILES(smiles[i], c.method)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return fps, errs, nil
}

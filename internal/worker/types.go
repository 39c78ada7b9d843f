package worker

import (
	"time"

	"github.com/ChuLiYu/drone-dispatch/internal/builder"
	"github.com/ChuLiYu/drone-dispatch/internal/solution"
	"github.com/ChuLiYu/drone-dispatch/pkg/types"
)

// Task asks a worker to construct one schedule.
type Task struct {
	ID      int            // position of the result in the caller's batch
	Seed    int64          // seed of the worker-private random source
	Problem *types.Problem // read only, shared by all workers
	Policy  builder.Policy // shipment selection policy
}

// Result carries a constructed schedule back to the caller.
type Result struct {
	TaskID     int
	Chromosome *solution.Chromosome
	Report     builder.Report
	Duration   time.Duration // build time
	Err        error         // set when the build panicked
}

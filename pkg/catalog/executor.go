package catalog

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/nyarchlinux/nyarchify/pkg/errors"
	"github.com/nyarchlinux/nyarchify/pkg/logging"
	"github.com/rs/zerolog"
)

// Reporter is told about each operation as it runs
type Reporter interface {
	Started(op Operation)
	Succeeded(op Operation)
	Failed(op Operation, err error)
}

// Result records one executed operation
type Result struct {
	ID       int           `yaml:"id"`
	Name     string        `yaml:"name,omitempty"`
	Prompt   string        `yaml:"prompt"`
	Outcome  Outcome       `yaml:"-"`
	Error    string        `yaml:"error,omitempty"`
	Duration time.Duration `yaml:"duration"`
}

// OK reports whether the operation succeeded
func (r Result) OK() bool {
	return r.Outcome.OK()
}

// Log is the record of one run
type Log struct {
	Results  []Result      `yaml:"results"`
	Skipped  []int         `yaml:"not_run,omitempty"`
	Duration time.Duration `yaml:"duration"`
}

// Succeeded returns the results that completed
func (l Log) Succeeded() []Result {
	return l.filter(true)
}

// Failed returns the results that did not complete
func (l Log) Failed() []Result {
	return l.filter(false)
}

func (l Log) filter(ok bool) []Result {
	var out []Result
	for _, r := range l.Results {
		if r.OK() == ok {
			out = append(out, r)
		}
	}
	return out
}

// Options configures an Executor
type Options struct {
	Reporter Reporter
	// Logger defaults to the "catalog.executor" component logger
	Logger *zerolog.Logger
}

// Executor runs selected operations
type Executor struct {
	reporter Reporter
	logger   zerolog.Logger
}

// NewExecutor creates an executor
func NewExecutor(opts Options) *Executor {
	logger := logging.GetLogger("catalog.executor")
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &Executor{reporter: reporter, logger: logger}
}

// Run executes every selected operation once, in catalog order. A failure
// is reported and the next operation still runs. Once ctx is cancelled no
// further operation is started; those are listed in Log.Skipped.
func (e *Executor) Run(ctx context.Context, c *Catalog, sel Selection) Log {
	start := time.Now()
	var log Log

	for _, op := range c.Operations() {
		if !sel.Has(op.ID) {
			continue
		}
		if ctx.Err() != nil {
			log.Skipped = append(log.Skipped, op.ID)
			continue
		}

		log.Results = append(log.Results, e.execute(ctx, op))
	}

	log.Duration = time.Since(start)
	e.logger.Info().
		Int("succeeded", len(log.Succeeded())).
		Int("failed", len(log.Failed())).
		Ints("not_run", log.Skipped).
		Dur("duration", log.Duration).
		Msg("Run finished")
	return log
}

func (e *Executor) execute(ctx context.Context, op Operation) Result {
	logger := e.logger.With().Int("id", op.ID).Str("name", op.Name).Logger()
	done := logging.LogOperationStart(logger, op.Prompt)
	defer done()

	e.reporter.Started(op)
	start := time.Now()
	outcome := invoke(ctx, op)
	res := Result{
		ID:       op.ID,
		Name:     op.Name,
		Prompt:   op.Prompt,
		Outcome:  outcome,
		Duration: time.Since(start),
	}

	if outcome.Err != nil {
		res.Error = outcome.Err.Error()
		logger.Error().Err(outcome.Err).Msg("Operation failed")
		e.reporter.Failed(op, outcome.Err)
		return res
	}
	e.reporter.Succeeded(op)
	return res
}

// invoke runs the action, turning a panic into a failed outcome
func invoke(ctx context.Context, op Operation) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger := logging.GetLogger("catalog.executor")
			logger.Debug().
				Str("stack", string(debug.Stack())).
				Msg("Recovered panic")
			out = Outcome{Err: errors.Newf(errors.ErrOperation, "operation %d panicked: %v", op.ID, r)}
		}
	}()
	if op.Action == nil {
		return Outcome{Err: errors.Newf(errors.ErrInternal, "operation %d has no action", op.ID)}
	}
	return op.Action(ctx)
}

type nopReporter struct{}

func (nopReporter) Started(Operation)       {}
func (nopReporter) Succeeded(Operation)     {}
func (nopReporter) Failed(Operation, error) {}

// String summarises the log in one line
func (l Log) String() string {
	return fmt.Sprintf("%d succeeded, %d failed", len(l.Succeeded()), len(l.Failed()))
}

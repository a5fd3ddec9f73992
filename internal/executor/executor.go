package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/girregen/internal/ctxlog"
	"golang.org/x/sync/errgroup"
)

// ErrNotStarted is the error of tasks held back by Set.Stop.
var ErrNotStarted = errors.New("task not started: run aborted")

// Report is what a task produced. Log is the complete, ready-to-print text.
type Report struct {
	Header string
	Stdout string
	Stderr string
	Log    string
}

// Task is one unit of independent work.
type Task struct {
	Name string
	Run  func(ctx context.Context) (Report, error)
}

// Result is the outcome of a Task.
type Result struct {
	Report
	Name string
	// Index is the task's position in the slice given to Launch.
	Index    int
	Duration time.Duration
	// Err is nil on success.
	Err error
}

// Options tunes Launch.
type Options struct {
	// Jobs caps the number of tasks running at once. 0 means no cap.
	Jobs int
}

// Set is a group of launched tasks.
type Set struct {
	results chan Result
	stop    context.CancelFunc
	size    int
}

// Launch starts tasks without waiting on any of them. ctx is handed to every
// task; cancelling it is the caller's business.
func Launch(ctx context.Context, tasks []Task, opts Options) *Set {
	logger := ctxlog.FromContext(ctx)
	gate, stop := context.WithCancel(context.Background())
	s := &Set{
		results: make(chan Result, len(tasks)),
		stop:    stop,
		size:    len(tasks),
	}

	var g errgroup.Group
	if opts.Jobs > 0 {
		g.SetLimit(opts.Jobs)
	}
	logger.Debug("Launching tasks.", "count", len(tasks), "jobs", opts.Jobs)

	go func() {
		defer stop()
		for i, task := range tasks {
			g.Go(func() error {
				if gate.Err() != nil {
					s.results <- Result{Name: task.Name, Index: i, Err: ErrNotStarted}
					return nil
				}
				s.results <- runTask(ctx, i, task)
				return nil
			})
		}
		_ = g.Wait()
		close(s.results)
	}()
	return s
}

func runTask(ctx context.Context, index int, task Task) (res Result) {
	logger := ctxlog.FromContext(ctx).With("task", task.Name)
	res = Result{Name: task.Name, Index: index}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("task panicked: %v", r)
		}
		res.Duration = time.Since(start)
		logger.Debug("Task finished.", "duration", res.Duration, "error", res.Err)
	}()

	logger.Debug("Task started.")
	res.Report, res.Err = task.Run(ctx)
	return res
}

// Len is the number of tasks in the set.
func (s *Set) Len() int {
	return s.size
}

// Next blocks until another task completes and returns its result. ok is
// false once every task has been reported.
func (s *Set) Next() (res Result, ok bool) {
	res, ok = <-s.results
	return res, ok
}

// Stop keeps tasks that have not started yet from starting. Running tasks
// are not interrupted.
func (s *Set) Stop() {
	s.stop()
}

// TaskError is the failure of one task, as returned by Drain.
type TaskError struct {
	Name string
	// Log holds whatever the task had logged before failing.
	Log string
	Err error
}

func (e *TaskError) Error() string {
	return e.Err.Error()
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// Drain passes each successful result to fn in completion order. The first
// failed result stops the set and is returned as a *TaskError without
// waiting for the remaining tasks.
func Drain(s *Set, fn func(Result)) error {
	for {
		res, ok := s.Next()
		if !ok {
			return nil
		}
		if res.Err != nil {
			s.Stop()
			return &TaskError{Name: res.Name, Log: res.Log, Err: res.Err}
		}
		fn(res)
	}
}

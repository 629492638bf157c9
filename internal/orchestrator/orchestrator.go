// File: internal/orchestrator/orchestrator.go
// Description: Runs the login attempts row by row. It is injected with the
// attempt executor via an interface, making it decoupled and testable.

package orchestrator

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/bulklogin/internal/attempt"
	"github.com/xkilldash9x/bulklogin/internal/config"
	"github.com/xkilldash9x/bulklogin/internal/workbook"
)

// Attempter performs a single login attempt.
type Attempter interface {
	Attempt(ctx context.Context, row *workbook.Row) attempt.Outcome
}

// Summary counts the outcomes of a run.
type Summary struct {
	RunID string
	Total int
	// Codes maps an outcome code to the number of rows that ended with it.
	Codes map[int]int
}

func (s Summary) String() string {
	codes := make([]int, 0, len(s.Codes))
	for c := range s.Codes {
		codes = append(codes, c)
	}
	sort.Ints(codes)

	parts := []string{fmt.Sprintf("Toplam: %d", s.Total)}
	for _, c := range codes {
		parts = append(parts, fmt.Sprintf("%d: %d", c, s.Codes[c]))
	}
	return strings.Join(parts, " | ")
}

// Orchestrator manages the sequential attempt loop.
type Orchestrator struct {
	attempter Attempter
	logger    *zap.Logger
	out       io.Writer
	limiter   *rate.Limiter
}

// New creates an Orchestrator. Progress lines are written to out.
func New(attempter Attempter, cfg config.RunConfig, logger *zap.Logger, out io.Writer) (*Orchestrator, error) {
	if attempter == nil || logger == nil || out == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}
	o := &Orchestrator{
		attempter: attempter,
		logger:    logger.Named("orchestrator"),
		out:       out,
	}
	if cfg.MinInterval > 0 {
		o.limiter = rate.NewLimiter(rate.Every(cfg.MinInterval), 1)
	}
	return o, nil
}

// Run attempts every row in order and sets its status. Every row receives a
// status, including rows left when ctx is canceled, which fail fast.
func (o *Orchestrator) Run(ctx context.Context, rows []*workbook.Row) Summary {
	summary := Summary{
		RunID: uuid.New().String(),
		Total: len(rows),
		Codes: make(map[int]int),
	}
	logger := o.logger.With(zap.String("run_id", summary.RunID))
	logger.Info("Starting login run.", zap.Int("rows", len(rows)))

	for i, row := range rows {
		target := attempt.NormalizeURL(row.TargetURL)
		fmt.Fprintf(o.out, "\n%d/%d - Denenen hesap: %s | Site: %s\n", i+1, len(rows), row.Username, target)
		rowLogger := logger.With(zap.Int("row", row.Index), zap.String("username", row.Username), zap.String("url", target))
		rowLogger.Info("Attempting login.")

		outcome := o.runRow(ctx, rowLogger, row)
		row.Status = outcome.Status()
		summary.Codes[outcome.Code]++
		o.report(rowLogger, outcome)
	}

	logger.Info("Login run finished.", zap.Int("total", summary.Total), zap.Any("codes", summary.Codes))
	fmt.Fprintf(o.out, "\n%s\n", summary)
	return summary
}

func (o *Orchestrator) runRow(ctx context.Context, logger *zap.Logger, row *workbook.Row) (outcome attempt.Outcome) {
	if err := ctx.Err(); err != nil {
		return attempt.SystemError(err)
	}
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return attempt.SystemError(err)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Recovered from panic during attempt.", zap.Any("panic_value", r), zap.Stack("stack"))
			outcome = attempt.SystemError(fmt.Errorf("%v", r))
		}
	}()
	return o.attempter.Attempt(ctx, row)
}

func (o *Orchestrator) report(logger *zap.Logger, outcome attempt.Outcome) {
	status := outcome.Status()
	switch {
	case outcome.Code == attempt.CodeSuccess:
		fmt.Fprintln(o.out, status)
		logger.Info(status)
	case outcome.Code == attempt.CodeRejected && outcome.Excerpt != "":
		fmt.Fprintf(o.out, "%s | Mesaj: %s\n", status, outcome.Excerpt)
		logger.Warn(status, zap.String("message", outcome.Excerpt))
	case outcome.Code == attempt.CodeRejected:
		fmt.Fprintln(o.out, status)
		logger.Warn(status)
	default:
		fmt.Fprintln(o.out, status)
		logger.Error(status, zap.Error(outcome.Err))
	}
}

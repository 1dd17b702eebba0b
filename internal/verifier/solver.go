package verifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/eatikrh/kleis-sub002/internal/config"
)

// Runner executes one SMT-LIB2 script and returns the solver's raw
// output. Implementations must honor context cancellation: a deadline
// abandons the run, it never hangs the caller.
type Runner interface {
	Run(ctx context.Context, script string) (string, error)
}

// execRunner drives an external solver process per query: the script is
// written to stdin and the process is killed when the context expires.
// One process per query keeps queries isolated; there is no incremental
// solver state to corrupt across concurrent verifications.
type execRunner struct {
	cfg config.SolverConfig
}

// NewRunner returns a Runner for the configured solver binary.
func NewRunner(cfg config.SolverConfig) Runner {
	return &execRunner{cfg: cfg}
}

func (r *execRunner) Run(ctx context.Context, script string) (string, error) {
	cmd := exec.CommandContext(ctx, r.cfg.Path, r.cfg.Args...)
	cmd.Stdin = strings.NewReader(script)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if ctx.Err() != nil {
		return out.String(), ctx.Err()
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && out.Len() > 0 {
			// Solvers exit nonzero on (error ...) responses but still
			// print a usable status; let the caller interpret it.
			return out.String(), nil
		}
		return "", fmt.Errorf("solver %s: %w", r.cfg.Path, err)
	}
	return out.String(), nil
}

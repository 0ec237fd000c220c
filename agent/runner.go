package agent

import (
	"context"
	"strings"

	"github.com/formflow/go-formflow/tool"
	"go.uber.org/zap"
)

// destructivePhrases short-circuit dispatch entirely. The dispatcher never
// sees the utterance, so a misparsed bulk-delete request cannot reach a
// tool.
var destructivePhrases = []string{
	"delete all",
	"remove everything",
	"clear all data",
}

// Runner turns an utterance into a tool invocation: dispatch, guardrail
// check, invoke, and always an explained result record back to the caller.
type Runner struct {
	dispatcher Dispatcher
	tools      *tool.Toolset
	logger     *zap.Logger
}

type RunnerOption func(*Runner)

func WithLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

func NewRunner(dispatcher Dispatcher, tools *tool.Toolset, opts ...RunnerOption) *Runner {
	r := &Runner{
		dispatcher: dispatcher,
		tools:      tools,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run handles one utterance within the given session and returns a uniform
// result record. Dispatch failures and guardrail refusals are results, not
// errors: the caller always gets an explanation it can show the user.
func (r *Runner) Run(ctx context.Context, sess *tool.Session, utterance string) tool.Result {
	if refused, reason := refuse(utterance); refused {
		r.logger.Warn("utterance refused", zap.String("reason", reason))
		return tool.Result{
			Status:    tool.StatusError,
			Message:   reason,
			ErrorType: tool.ErrorTypeValidation,
		}
	}

	decision, err := r.dispatcher.Dispatch(ctx, utterance)
	if err != nil {
		r.logger.Error("dispatch failed", zap.Error(err))
		return tool.Failure(err)
	}

	if decision.Op == "" {
		return tool.SuccessMessage(decision.Reply)
	}

	r.logger.Info("dispatching operation", zap.String("operation", string(decision.Op)))
	return r.tools.Invoke(sess, decision.Op, decision.Args)
}

func refuse(utterance string) (bool, string) {
	lowered := strings.ToLower(utterance)
	for _, phrase := range destructivePhrases {
		if strings.Contains(lowered, phrase) {
			return true, "request refused: bulk destructive operations are not available; delete forms one at a time by ID"
		}
	}
	return false, ""
}

package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"talent-sync/internal/common/errors"
	"talent-sync/internal/common/logger"
	"talent-sync/internal/common/metrics"
	"talent-sync/internal/common/observability"
)

// Thunk is an async operation named by Type. Run performs the call; the
// pending, fulfilled and rejected actions are dispatched around it.
type Thunk[A, R any] struct {
	Type string
	Run  func(ctx context.Context, arg A) (R, error)
}

// Runtime is what thunks need besides their argument.
type Runtime struct {
	Dispatcher    Dispatcher
	Observability *observability.Observability
	Logger        logger.Logger
}

// RunThunk dispatches pending with a fresh request id, runs the thunk and
// dispatches fulfilled or rejected. The result is also returned so callers
// can branch on it. Nothing guards competing thunks of the same type: the
// last one to settle wins.
func RunThunk[A, R any](ctx context.Context, rt Runtime, thunk Thunk[A, R], arg A) (R, error) {
	log := rt.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	requestID := uuid.NewString()
	started := time.Now()

	rt.Dispatcher.Dispatch(Action{
		Type: Pending(thunk.Type),
		Meta: Meta{RequestID: requestID, Arg: arg, Phase: PhasePending},
	})
	metrics.StoreActionsTotal.WithLabelValues(thunk.Type, string(PhasePending)).Inc()

	result, err := thunk.Run(ctx, arg)
	elapsed := time.Since(started)

	if err != nil {
		rt.Dispatcher.Dispatch(Action{
			Type:  Rejected(thunk.Type),
			Error: err,
			Meta:  Meta{RequestID: requestID, Arg: arg, Phase: PhaseRejected},
		})
		metrics.StoreActionsTotal.WithLabelValues(thunk.Type, string(PhaseRejected)).Inc()
		rt.Observability.RecordAction(ctx, thunk.Type, string(PhaseRejected))
		rt.Observability.RecordActionDuration(ctx, thunk.Type, elapsed, string(PhaseRejected))

		log.Info("Async action rejected", map[string]interface{}{
			"type":      thunk.Type,
			"requestId": requestID,
			"code":      string(errors.CodeOf(err)),
			"message":   errors.UserMessage(err),
		})
		return result, err
	}

	rt.Dispatcher.Dispatch(Action{
		Type:    Fulfilled(thunk.Type),
		Payload: result,
		Meta:    Meta{RequestID: requestID, Arg: arg, Phase: PhaseFulfilled},
	})
	metrics.StoreActionsTotal.WithLabelValues(thunk.Type, string(PhaseFulfilled)).Inc()
	rt.Observability.RecordAction(ctx, thunk.Type, string(PhaseFulfilled))
	rt.Observability.RecordActionDuration(ctx, thunk.Type, elapsed, string(PhaseFulfilled))

	log.Debug("Async action fulfilled", map[string]interface{}{
		"type":       thunk.Type,
		"requestId":  requestID,
		"durationMs": elapsed.Milliseconds(),
	})
	return result, nil
}

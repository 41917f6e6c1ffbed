package messaging

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/msdawood/analyse-with-rekognition/internal/database"
	"github.com/msdawood/analyse-with-rekognition/internal/labelcheck"

	"gorm.io/gorm"
)

// Worker consumes analysis tasks and runs the label checker for each,
// recording the outcome on the Invocation row.
type Worker struct {
	db       *gorm.DB
	checker  *labelcheck.Checker
	receiver Reciever
}

func NewWorker(db *gorm.DB, checker *labelcheck.Checker, receiver Reciever) *Worker {
	return &Worker{db: db, checker: checker, receiver: receiver}
}

// Start blocks consuming tasks until ctx is cancelled or the task channel is
// closed.
func (w *Worker) Start(ctx context.Context) {
	slog.Info("worker started, waiting for tasks")

	for {
		select {
		case task, ok := <-w.receiver.Tasks():
			if !ok {
				slog.Info("task channel closed, worker exiting")
				return
			}
			w.processTask(ctx, task)
		case <-ctx.Done():
			slog.Info("worker stopping", "reason", ctx.Err())
			return
		}
	}
}

func (w *Worker) processTask(ctx context.Context, task Task) {
	switch task.Type() {
	case AnalysisQueue:
		var payload AnalysisTaskPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			slog.Error("error unmarshalling analysis task, discarding", "error", err, "body", string(task.Payload()))
			task.Reject() //nolint:errcheck
			return
		}

		if err := w.handleAnalysisTask(ctx, payload); err != nil {
			slog.Error("error processing analysis task", "invocation_id", payload.InvocationId, "error", err)
			task.Nack() //nolint:errcheck
			return
		}

		slog.Info("analysis task processed", "invocation_id", payload.InvocationId)
		task.Ack() //nolint:errcheck

	default:
		slog.Warn("received message from unknown queue, discarding", "queue", task.Type())
		task.Reject() //nolint:errcheck
	}
}

func (w *Worker) handleAnalysisTask(ctx context.Context, payload AnalysisTaskPayload) error {
	if err := database.UpdateInvocationStatus(ctx, w.db, payload.InvocationId, database.JobRunning); err != nil {
		slog.Warn("failed to mark invocation running", "invocation_id", payload.InvocationId, "error", err)
	}

	result, err := w.checker.Check(ctx, payload.Bucket, payload.ObjectKey)
	if err != nil {
		database.SaveInvocationError(ctx, w.db, payload.InvocationId, err.Error())
		return err
	}

	labelCount := 0
	if len(result.Body) > 0 {
		labelCount = len(result.Body[0])
	}

	return database.SaveInvocationResult(ctx, w.db, payload.InvocationId, result.Status, w.checker.Matched(result), labelCount, result.Body)
}

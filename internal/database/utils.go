package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func UpdateInvocationStatus(ctx context.Context, txn *gorm.DB, invocationId uuid.UUID, status string) error {
	updates := map[string]any{"status": status}
	if status == JobCompleted || status == JobFailed {
		updates["completion_time"] = time.Now().UTC()
	}

	if err := txn.WithContext(ctx).Model(&Invocation{Id: invocationId}).Updates(updates).Error; err != nil {
		slog.Error("error updating invocation status", "invocation_id", invocationId, "status", status, "error", err)
		return err
	}
	return nil
}

// SaveInvocationResult records the check outcome and marks the invocation
// completed. labels is marshalled into the Labels JSON column.
func SaveInvocationResult(ctx context.Context, txn *gorm.DB, invocationId uuid.UUID, resultStatus string, matched bool, labelCount int, labels any) error {
	data, err := json.Marshal(labels)
	if err != nil {
		return fmt.Errorf("could not marshal labels: %w", err)
	}

	updates := map[string]any{
		"status":          JobCompleted,
		"result_status":   resultStatus,
		"matched_label":   matched,
		"label_count":     labelCount,
		"labels":          data,
		"completion_time": time.Now().UTC(),
	}

	if err := txn.WithContext(ctx).Model(&Invocation{Id: invocationId}).Updates(updates).Error; err != nil {
		slog.Error("error saving invocation result", "invocation_id", invocationId, "error", err)
		return err
	}
	return nil
}

func SaveInvocationError(ctx context.Context, txn *gorm.DB, invocationId uuid.UUID, errorMessage string) {
	updates := map[string]any{
		"status":          JobFailed,
		"error":           errorMessage,
		"completion_time": time.Now().UTC(),
	}

	if err := txn.WithContext(ctx).Model(&Invocation{Id: invocationId}).Updates(updates).Error; err != nil {
		slog.Error("error saving invocation error", "invocation_id", invocationId, "error", err)
	}
}

// Package notification ships the default notification sink: transfer events
// and terminal transfer results are rendered as structured log records. A chat
// front-end can replace it by implementing the same interfaces.
package notification

import (
	"context"

	"github.com/gabapcia/tronwatch/internal/pipeline"
	"github.com/gabapcia/tronwatch/internal/pkg/logger"
	"github.com/gabapcia/tronwatch/internal/transferexec"
	"github.com/gabapcia/tronwatch/internal/transfermonitor"
)

type logSink struct{}

var _ pipeline.TransferNotifier = (*logSink)(nil)

// NewLogSink returns a sink that logs every notification at info level.
func NewLogSink() *logSink {
	return &logSink{}
}

// NotifyTransfer implements pipeline.TransferNotifier.
func (s *logSink) NotifyTransfer(ctx context.Context, event transfermonitor.Event) error {
	logger.Info(ctx, "inbound transfer received",
		"tx_id", event.TxID,
		"token", event.Token,
		"amount", event.Amount,
		"from", event.From,
		"to", event.To,
		"block", event.BlockHeight,
		"block_time", event.BlockTime,
	)
	return nil
}

// NotifyTransferResult logs the terminal outcome of an outbound transfer.
func (s *logSink) NotifyTransferResult(ctx context.Context, result transferexec.Result) error {
	fields := []any{
		"request_id", result.RequestID,
		"status", result.Status,
		"token", result.Token,
		"amount", result.Amount,
		"target", result.Target,
	}
	if result.TxID != "" {
		fields = append(fields, "tx_id", result.TxID)
	}

	switch result.Status {
	case transferexec.StatusConfirmed:
		logger.Info(ctx, "transfer confirmed", fields...)
	case transferexec.StatusTimedOut:
		logger.Warn(ctx, "transfer confirmation timed out, check status later", fields...)
	default:
		fields = append(fields, "code", result.Code, "detail", result.Detail)
		logger.Error(ctx, "transfer failed", fields...)
	}

	return nil
}

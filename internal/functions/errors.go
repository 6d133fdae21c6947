package functions

import (
	"context"
	"errors"
	"time"

	cwltypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/smithy-go"

	"qscope/internal/logger"
	apperrors "qscope/pkg/errors"
	"qscope/pkg/metrics"
	"qscope/pkg/retry"
)

// callAWS runs fn under policy, classifying every failure so that throttling
// and server faults are retried and everything else stops at once.
func callAWS(ctx context.Context, policy retry.Policy, log logger.Logger, operation, function string, fn func() error) error {
	return retry.Do(ctx, policy, func() error {
		if err := fn(); err != nil {
			return classify(err, function)
		}
		return nil
	}, func(attempt int, err error, next time.Duration) {
		metrics.IncRetryAttempt(operation)
		log.Warnw("Retrying function call",
			"operation", operation,
			"function", function,
			"attempt", attempt,
			"next_delay", next,
			"error", err,
		)
	})
}

func classify(err error, function string) error {
	var notFound *types.ResourceNotFoundException
	var groupNotFound *cwltypes.ResourceNotFoundException
	if errors.As(err, &notFound) || errors.As(err, &groupNotFound) {
		return apperrors.ErrNotFound.WithCause(err).WithDetail("function", function)
	}

	appErr := apperrors.ErrTransport.WithCause(err)
	if function != "" {
		appErr = appErr.WithDetail("function", function)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return appErr.AsFatal()
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		appErr = appErr.WithDetail("aws_error_code", apiErr.ErrorCode())
		if apiErr.ErrorFault() == smithy.FaultServer {
			return appErr.AsRetryable()
		}
		switch apiErr.ErrorCode() {
		case "TooManyRequestsException", "Throttling", "ThrottlingException":
			return appErr.AsRetryable()
		}
		return appErr.AsFatal()
	}
	return appErr
}

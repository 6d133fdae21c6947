package transport

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/smithy-go"
	"golang.org/x/time/rate"

	"qscope/internal/config"
	"qscope/internal/constants"
	"qscope/internal/logger"
	apperrors "qscope/pkg/errors"
	"qscope/pkg/metrics"
	"qscope/pkg/models"
	"qscope/pkg/retry"
)

// SQSAPI is the subset of the SQS client used here.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	GetQueueAttributes(ctx context.Context, params *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error)
	ListQueues(ctx context.Context, params *sqs.ListQueuesInput, optFns ...func(*sqs.Options)) (*sqs.ListQueuesOutput, error)
}

type SQSTransport struct {
	client  SQSAPI
	limiter *rate.Limiter
	policy  retry.Policy
	logger  logger.Logger
}

// LoadAWSConfig resolves credentials through the default chain for the
// configured region.
func LoadAWSConfig(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return aws.Config{}, apperrors.ErrConfiguration.WithCause(err).WithDetail("region", cfg.Region)
	}
	return awsCfg, nil
}

func NewSQS(awsCfg aws.Config, cfg config.AWSConfig, log logger.Logger) *SQSTransport {
	client := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewSQSWithClient(client, cfg, log)
}

func NewSQSWithClient(client SQSAPI, cfg config.AWSConfig, log logger.Logger) *SQSTransport {
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = constants.DefaultTransportRateLimit
	}

	return &SQSTransport{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		policy: retry.Policy{
			MaxAttempts:     cfg.Retry.MaxAttempts,
			InitialInterval: cfg.Retry.InitialInterval,
			MaxInterval:     cfg.Retry.MaxInterval,
			Multiplier:      cfg.Retry.Multiplier,
			MaxElapsedTime:  cfg.Retry.MaxElapsedTime,
		},
		logger: log,
	}
}

func (t *SQSTransport) Receive(ctx context.Context, endpoint string, maxMessages, waitSeconds int) ([]models.RawMessage, error) {
	if maxMessages > constants.MaxBatchSize {
		maxMessages = constants.MaxBatchSize
	}
	if maxMessages < 1 {
		maxMessages = 1
	}

	input := &sqs.ReceiveMessageInput{
		QueueUrl:                    aws.String(endpoint),
		MaxNumberOfMessages:         int32(maxMessages),
		WaitTimeSeconds:             int32(waitSeconds),
		MessageSystemAttributeNames: []types.MessageSystemAttributeName{types.MessageSystemAttributeNameAll},
		MessageAttributeNames:       []string{"All"},
	}

	var out *sqs.ReceiveMessageOutput
	start := time.Now()
	err := t.call(ctx, "receive", endpoint, func() error {
		var err error
		out, err = t.client.ReceiveMessage(ctx, input)
		return err
	})
	metrics.ObserveReceive(endpoint, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	messages := make([]models.RawMessage, 0, len(out.Messages))
	for _, m := range out.Messages {
		messages = append(messages, toRawMessage(m))
	}
	return messages, nil
}

func (t *SQSTransport) Depth(ctx context.Context, endpoint string) (int, error) {
	var out *sqs.GetQueueAttributesOutput
	err := t.call(ctx, "depth", endpoint, func() error {
		var err error
		out, err = t.client.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
			QueueUrl:       aws.String(endpoint),
			AttributeNames: []types.QueueAttributeName{types.QueueAttributeNameApproximateNumberOfMessages},
		})
		return err
	})
	if err != nil {
		return 0, err
	}

	raw, ok := out.Attributes[constants.DepthAttribute]
	if !ok {
		return 0, apperrors.ErrTransport.
			WithDetail("endpoint", endpoint).
			WithDetail("reason", "depth attribute missing").
			AsFatal()
	}
	depth, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.ErrTransport.WithCause(err).WithDetail("endpoint", endpoint).AsFatal()
	}
	return depth, nil
}

// Ping checks credentials and connectivity with a single cheap list call.
func (t *SQSTransport) Ping(ctx context.Context) error {
	return t.call(ctx, "ping", "", func() error {
		_, err := t.client.ListQueues(ctx, &sqs.ListQueuesInput{MaxResults: aws.Int32(1)})
		return err
	})
}

func (t *SQSTransport) call(ctx context.Context, operation, endpoint string, fn func() error) error {
	err := retry.Do(ctx, t.policy, func() error {
		if err := t.limiter.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}
		if err := fn(); err != nil {
			return classify(err, endpoint)
		}
		return nil
	}, func(attempt int, err error, next time.Duration) {
		metrics.IncRetryAttempt(operation)
		t.logger.Warnw("Retrying transport call",
			"operation", operation,
			"endpoint", endpoint,
			"attempt", attempt,
			"next_delay", next,
			"error", err,
		)
	})
	if err != nil {
		metrics.IncTransportError(operation)
		var appErr *apperrors.Error
		if !errors.As(err, &appErr) {
			err = apperrors.ErrTransport.WithCause(err).WithDetail("endpoint", endpoint)
		}
		return err
	}
	return nil
}

var throttlingCodes = map[string]bool{
	"Throttling":                    true,
	"ThrottlingException":           true,
	"RequestThrottled":              true,
	"RequestThrottledException":     true,
	"OverLimit":                     true,
	"ServiceUnavailable":            true,
	"InternalError":                 true,
	"KmsThrottled":                  true,
	"AWS.SimpleQueueService.Busy":   true,
	"ProvisionedThroughputExceeded": true,
}

var notFoundCodes = map[string]bool{
	"AWS.SimpleQueueService.NonExistentQueue": true,
	"QueueDoesNotExist":                       true,
}

// classify turns SDK errors into coded errors. Throttling and server-side
// faults stay retryable; everything else the API rejects is final.
func classify(err error, endpoint string) error {
	appErr := apperrors.ErrTransport.WithCause(err)
	if endpoint != "" {
		appErr = appErr.WithDetail("endpoint", endpoint)
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return appErr.AsFatal()
		}
		return appErr
	}

	code := apiErr.ErrorCode()
	appErr = appErr.WithDetail("aws_error_code", code)
	switch {
	case throttlingCodes[code]:
		return appErr.AsRetryable()
	case notFoundCodes[code]:
		return apperrors.ErrNotFound.
			WithCause(err).
			WithDetail("endpoint", endpoint).
			WithDetail("aws_error_code", code)
	case apiErr.ErrorFault() == smithy.FaultServer:
		return appErr.AsRetryable()
	default:
		return appErr.AsFatal()
	}
}

func toRawMessage(m types.Message) models.RawMessage {
	raw := models.RawMessage{
		ID:           aws.ToString(m.MessageId),
		ReceiptToken: aws.ToString(m.ReceiptHandle),
		Body:         aws.ToString(m.Body),
		Checksum:     aws.ToString(m.MD5OfBody),
		Attributes:   make(map[string]string, len(m.Attributes)),
	}
	for k, v := range m.Attributes {
		raw.Attributes[k] = v
	}

	if len(m.MessageAttributes) > 0 {
		raw.ExtendedAttributes = make(map[string]interface{}, len(m.MessageAttributes))
		for name, attr := range m.MessageAttributes {
			value := map[string]interface{}{
				"DataType": aws.ToString(attr.DataType),
			}
			if attr.StringValue != nil {
				value["StringValue"] = *attr.StringValue
			}
			if attr.BinaryValue != nil {
				value["BinaryValue"] = attr.BinaryValue
			}
			raw.ExtendedAttributes[name] = value
		}
	}
	return raw
}

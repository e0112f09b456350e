package queue

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// AWSOptions selects the region and, for local development, a LocalStack endpoint.
type AWSOptions struct {
	Region   string
	Endpoint string
}

// NewSQSClient builds an SQS client. When Endpoint is set, calls go to that
// URL with static test credentials; otherwise the default credential chain is used.
func NewSQSClient(ctx context.Context, opts AWSOptions) (*sqs.Client, error) {
	if opts.Endpoint != "" {
		slog.Info("routing SQS calls to local endpoint", "endpoint", opts.Endpoint)
		cfg, err := awsConfig.LoadDefaultConfig(ctx,
			awsConfig.WithRegion(opts.Region),
			awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")),
		)
		if err != nil {
			return nil, err
		}
		return sqs.NewFromConfig(cfg, func(o *sqs.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}), nil
	}

	cfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(opts.Region))
	if err != nil {
		return nil, err
	}
	return sqs.NewFromConfig(cfg), nil
}

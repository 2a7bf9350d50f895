package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSConfig configures the SNS topic publisher.
type SNSConfig struct {
	TopicARN        string `env:"SNS_TOPIC_ARN,required"` // TopicARN is the topic domain events are published to.
	Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`     // Optional static credentials; the default chain is used when empty.
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"` // Optional static credentials; the default chain is used when empty.
}

var ErrPublishFailed = errors.New("events: failed to publish")

// SNSPublisher publishes domain events to an SNS topic, JSON-encoded, with
// string message attributes for subscription filtering.
type SNSPublisher struct {
	client   *sns.Client
	topicARN string
}

// NewSNSPublisher builds a publisher from config, loading AWS credentials
// from the environment unless static keys are set.
func NewSNSPublisher(ctx context.Context, cfg SNSConfig) (*SNSPublisher, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Join(ErrPublishFailed, err)
	}

	return &SNSPublisher{
		client:   sns.NewFromConfig(awsCfg),
		topicARN: cfg.TopicARN,
	}, nil
}

// NewSNSPublisherWithClient wires an existing client, mainly for tests.
func NewSNSPublisherWithClient(client *sns.Client, topicARN string) *SNSPublisher {
	return &SNSPublisher{client: client, topicARN: topicARN}
}

// Publish sends the payload to the topic. Attribute values must be plain
// strings; they become SNS String message attributes.
func (p *SNSPublisher) Publish(ctx context.Context, subject string, payload any, attrs map[string]string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Join(ErrPublishFailed, err)
	}

	input := &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(string(body)),
	}
	if len(attrs) > 0 {
		input.MessageAttributes = make(map[string]types.MessageAttributeValue, len(attrs))
		for name, value := range attrs {
			input.MessageAttributes[name] = types.MessageAttributeValue{
				DataType:    aws.String("String"),
				StringValue: aws.String(value),
			}
		}
	}

	if _, err := p.client.Publish(ctx, input); err != nil {
		return errors.Join(ErrPublishFailed, err)
	}
	return nil
}

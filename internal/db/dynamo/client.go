// Package dynamo builds DynamoDB clients from the shared AWS configuration.
package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Config holds connection parameters for DynamoDB.
type Config struct {
	Region string
	// Endpoint overrides the service URL, e.g. http://localhost:8000 for DynamoDB Local.
	Endpoint string
}

// API is the subset of the DynamoDB client used by the stores.
type API interface {
	dynamodb.ScanAPIClient
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

var _ API = (*dynamodb.Client)(nil)

// NewClient loads the default AWS credential chain and returns a client for cfg.Region.
func NewClient(ctx context.Context, cfg Config) (*dynamodb.Client, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("region is required")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

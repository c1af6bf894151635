package predictionlog

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"

	"github.com/kailas-cloud/toxmod/internal/db"
	"github.com/kailas-cloud/toxmod/internal/db/dynamo"
	"github.com/kailas-cloud/toxmod/internal/domain"
)

// BackendDynamo names the DynamoDB backend in append results and config.
const BackendDynamo = "dynamodb"

// DynamoRepo stores one item per prediction in a DynamoDB table.
type DynamoRepo struct {
	client dynamo.API
	table  string
	newID  func() string
}

// NewDynamo creates a repository writing to table.
func NewDynamo(client dynamo.API, table string) *DynamoRepo {
	return &DynamoRepo{client: client, table: table, newID: uuid.NewString}
}

// Append writes rec with PutItem.
func (r *DynamoRepo) Append(ctx context.Context, rec domain.PredictionRecord) domain.AppendResult {
	res := domain.AppendResult{Backend: BackendDynamo}
	av, err := attributevalue.MarshalMap(toItem(r.newID(), rec))
	if err != nil {
		res.Err = fmt.Errorf("marshal prediction: %w", err)
		return res
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      av,
	})
	if err != nil {
		res.Err = &db.Error{Op: db.OpPutItem, Err: err}
	}
	return res
}

// List scans the whole table page by page and returns records ordered by timestamp.
func (r *DynamoRepo) List(ctx context.Context) ([]domain.PredictionRecord, error) {
	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName: aws.String(r.table),
	})

	var out []domain.PredictionRecord
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		var items []item
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal scan page: %w", err)
		}
		for _, it := range items {
			out = append(out, it.record())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

// Ping checks that the table exists and is reachable.
func (r *DynamoRepo) Ping(ctx context.Context) error {
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.table)})
	if err != nil {
		return fmt.Errorf("describe table %s: %w", r.table, err)
	}
	return nil
}

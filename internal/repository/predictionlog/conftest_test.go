package predictionlog

import (
	"context"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/kailas-cloud/toxmod/internal/domain"
)

// fakeDynamo keeps items in memory and pages scans pageSize items at a time.
type fakeDynamo struct {
	mu       sync.Mutex
	items    []map[string]types.AttributeValue
	pageSize int
	scans    int
	putErr   error
	scanErr  error
	tables   map[string]bool
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.items = append(f.items, in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++
	if f.scanErr != nil {
		return nil, f.scanErr
	}

	start := 0
	if k, ok := in.ExclusiveStartKey["offset"].(*types.AttributeValueMemberN); ok {
		start, _ = strconv.Atoi(k.Value)
	}
	end := min(start+f.pageSize, len(f.items))
	out := &dynamodb.ScanOutput{Items: f.items[start:end]}
	if end < len(f.items) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"offset": &types.AttributeValueMemberN{Value: strconv.Itoa(end)},
		}
	}
	return out, nil
}

func (f *fakeDynamo) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if !f.tables[*in.TableName] {
		return nil, &types.ResourceNotFoundException{}
	}
	return &dynamodb.DescribeTableOutput{}, nil
}

// fakeList is an in-memory Valkey list.
type fakeList struct {
	mu      sync.Mutex
	rows    map[string][][]byte
	pushErr error
}

func (f *fakeList) RPush(_ context.Context, key string, values ...[]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return f.pushErr
	}
	if f.rows == nil {
		f.rows = map[string][][]byte{}
	}
	f.rows[key] = append(f.rows[key], values...)
	return nil
}

func (f *fakeList) LRange(_ context.Context, key string, _, _ int64) ([][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[key], nil
}

func (f *fakeList) Ping(context.Context) error { return nil }

func record(ts, text string, toxic int, trueLabels domain.LabelMap) domain.PredictionRecord {
	resp := domain.LabelMap{"toxic": toxic}.Normalize(domain.DefaultLabels)
	return domain.PredictionRecord{
		Timestamp:   ts,
		RequestText: text,
		Response:    resp,
		TrueLabels:  trueLabels,
	}
}

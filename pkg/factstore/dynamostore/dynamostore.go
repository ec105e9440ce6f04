// Package dynamostore is the DynamoDB implementation of factstore.Backend.
package dynamostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/charmbracelet/log"

	"github.com/EternisAI/enchanted-assistant/pkg/factstore"
)

// Item attribute names. "key" holds the identity key, "date" the ISO write time.
const (
	attrID        = "id"
	attrType      = "type"
	attrCategory  = "category"
	attrKey       = "key"
	attrContent   = "content"
	attrTimestamp = "timestamp"
	attrDate      = "date"
)

// item is the table layout. Empty category and key are left out rather than
// stored as blank attributes.
type item struct {
	ID          string `dynamodbav:"id"`
	Type        string `dynamodbav:"type"`
	Category    string `dynamodbav:"category,omitempty"`
	IdentityKey string `dynamodbav:"key,omitempty"`
	Content     string `dynamodbav:"content"`
	Timestamp   int64  `dynamodbav:"timestamp"`
	Date        string `dynamodbav:"date,omitempty"`
}

const tableActiveTimeout = 5 * time.Minute

// API is the subset of the DynamoDB client used by the store.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

type Store struct {
	client API
	table  string
	logger *log.Logger
}

var _ factstore.Backend = (*Store)(nil)

func New(client API, table string, logger *log.Logger) *Store {
	return &Store{client: client, table: table, logger: logger}
}

func NewFromConfig(cfg aws.Config, table string, logger *log.Logger) *Store {
	return New(dynamodb.NewFromConfig(cfg), table, logger)
}

func (s *Store) PutItem(ctx context.Context, rec factstore.Record) error {
	av, err := marshalRecord(rec)
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("dynamodb put %s: %w", rec.ID, err)
	}
	return nil
}

func (s *Store) GetItem(ctx context.Context, id string) (factstore.Record, bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            map[string]types.AttributeValue{attrID: &types.AttributeValueMemberS{Value: id}},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return factstore.Record{}, false, fmt.Errorf("dynamodb get %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return factstore.Record{}, false, nil
	}
	rec, err := unmarshalRecord(out.Item)
	if err != nil {
		return factstore.Record{}, false, err
	}
	return rec, true, nil
}

// Scan walks every page of the table, pushing the filter down as a
// FilterExpression.
func (s *Store) Scan(ctx context.Context, filter factstore.Filter) ([]factstore.Record, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(s.table)}
	expr, err := buildFilter(filter)
	if err != nil {
		return nil, fmt.Errorf("dynamodb scan filter: %w", err)
	}
	if expr != nil {
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	var (
		records []factstore.Record
		pages   int
	)
	for {
		out, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("dynamodb scan: %w", err)
		}
		pages++
		for _, item := range out.Items {
			rec, err := unmarshalRecord(item)
			if err != nil {
				s.logger.Warn("Skipping malformed item", "error", err)
				continue
			}
			records = append(records, rec)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	s.logger.Debug("Scanned table", "table", s.table, "pages", pages, "items", len(records))
	return records, nil
}

// EnsureTable creates the table (hash key "id", on-demand billing) unless it
// already exists, then waits for it to become ACTIVE.
func (s *Store) EnsureTable(ctx context.Context) (bool, error) {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	if err == nil {
		s.logger.Info("Table already exists", "table", s.table)
		return false, nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return false, fmt.Errorf("describe table %s: %w", s.table, err)
	}

	_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrID), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrID), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return false, fmt.Errorf("create table %s: %w", s.table, err)
	}

	s.logger.Info("Waiting for table to become active", "table", s.table)
	waiter := dynamodb.NewTableExistsWaiter(s.client, func(o *dynamodb.TableExistsWaiterOptions) {
		o.MinDelay = time.Second
	})
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)}, tableActiveTimeout); err != nil {
		return true, fmt.Errorf("wait for table %s: %w", s.table, err)
	}
	s.logger.Info("Table created", "table", s.table)
	return true, nil
}

// buildFilter returns nil when the filter matches everything.
func buildFilter(f factstore.Filter) (*expression.Expression, error) {
	var conds []expression.ConditionBuilder
	if f.IDPrefix != "" {
		conds = append(conds, expression.Name(attrID).BeginsWith(f.IDPrefix))
	}
	if f.Type != "" {
		conds = append(conds, expression.Name(attrType).Equal(expression.Value(f.Type)))
	}
	if f.IdentityKey != "" {
		conds = append(conds, expression.Name(attrKey).Equal(expression.Value(f.IdentityKey)))
	}

	var cond expression.ConditionBuilder
	switch len(conds) {
	case 0:
		return nil, nil
	case 1:
		cond = conds[0]
	default:
		cond = expression.And(conds[0], conds[1], conds[2:]...)
	}

	expr, err := expression.NewBuilder().WithFilter(cond).Build()
	if err != nil {
		return nil, err
	}
	return &expr, nil
}

func marshalRecord(rec factstore.Record) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(item{
		ID:          rec.ID,
		Type:        rec.Type,
		Category:    rec.Category,
		IdentityKey: rec.IdentityKey,
		Content:     rec.Content,
		Timestamp:   rec.Timestamp,
		Date:        rec.Date.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal item %s: %w", rec.ID, err)
	}
	return av, nil
}

func unmarshalRecord(av map[string]types.AttributeValue) (factstore.Record, error) {
	var it item
	if err := attributevalue.UnmarshalMap(av, &it); err != nil {
		return factstore.Record{}, fmt.Errorf("unmarshal item: %w", err)
	}
	if it.ID == "" {
		return factstore.Record{}, errors.New("item has no id")
	}

	rec := factstore.Record{
		ID:          it.ID,
		Type:        it.Type,
		Category:    it.Category,
		IdentityKey: it.IdentityKey,
		Content:     it.Content,
		Timestamp:   it.Timestamp,
	}
	switch {
	case it.Date != "":
		date, err := time.Parse(time.RFC3339Nano, it.Date)
		if err != nil {
			return factstore.Record{}, fmt.Errorf("item %s: bad date %q: %w", rec.ID, it.Date, err)
		}
		rec.Date = date
	case rec.Timestamp != 0:
		rec.Date = time.UnixMilli(rec.Timestamp).UTC()
	}
	return rec, nil
}

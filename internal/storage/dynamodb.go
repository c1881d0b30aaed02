package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
)

// DynamoDBStore implements Store using AWS DynamoDB. The (Fecha, Email)
// key plus a single UpdateItem give the uniqueness-constraint-backed
// upsert the accumulation contract requires.
type DynamoDBStore struct {
	client *dynamodb.Client
	config DynamoConfig
	logger zerolog.Logger
}

// NewDynamoDBStore creates a new DynamoDB store
func NewDynamoDBStore(ctx context.Context, cfg DynamoConfig, logger zerolog.Logger) (*DynamoDBStore, error) {
	var client *dynamodb.Client

	if cfg.Mode == DynamoModeLocal {
		// For local mode, build the client directly without LoadDefaultConfig.
		// LoadDefaultConfig probes the EC2 IMDS endpoint which hangs on EC2
		// instances when static credentials are intended.
		client = dynamodb.New(dynamodb.Options{
			Region:       cfg.Region,
			BaseEndpoint: aws.String(cfg.Endpoint),
			Credentials:  credentials.NewStaticCredentialsProvider("local", "local", ""),
		})
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = dynamodb.NewFromConfig(awsCfg)
	}

	store := &DynamoDBStore{
		client: client,
		config: cfg,
		logger: logger,
	}

	// Create the table in local mode
	if cfg.Mode == DynamoModeLocal {
		if err := CreateTableIfNotExists(ctx, client, cfg, logger); err != nil {
			return nil, err
		}
	}

	logger.Info().
		Str("mode", string(cfg.Mode)).
		Str("region", cfg.Region).
		Str("table", cfg.ConnectedTimeTable).
		Msg("DynamoDB connected-time store initialized")

	return store, nil
}

// Accumulate merges seconds into the (fecha, email) row in one atomic
// UpdateItem: ADD creates the attribute on first write, if_not_exists
// pins CreatedAt. No read-then-write, so concurrent writers are safe.
func (s *DynamoDBStore) Accumulate(ctx context.Context, fecha, email string, seconds int64) error {
	now := time.Now().UTC().Format(time.RFC3339)

	update := expression.
		Add(expression.Name("TotalSeconds"), expression.Value(seconds)).
		Set(expression.Name("UpdatedAt"), expression.Value(now)).
		Set(expression.Name("CreatedAt"), expression.IfNotExists(expression.Name("CreatedAt"), expression.Value(now)))

	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return fmt.Errorf("failed to build update expression: %w", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.config.ConnectedTimeTable),
		Key: map[string]dbtypes.AttributeValue{
			"Fecha": &dbtypes.AttributeValueMemberS{Value: fecha},
			"Email": &dbtypes.AttributeValueMemberS{Value: email},
		},
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return fmt.Errorf("failed to accumulate connected time: %w", err)
	}
	return nil
}

// Get returns the accumulated row for (fecha, email).
func (s *DynamoDBStore) Get(ctx context.Context, fecha, email string) (ConnectedTime, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.config.ConnectedTimeTable),
		Key: map[string]dbtypes.AttributeValue{
			"Fecha": &dbtypes.AttributeValueMemberS{Value: fecha},
			"Email": &dbtypes.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		return ConnectedTime{}, fmt.Errorf("failed to get connected time: %w", err)
	}
	if result.Item == nil {
		return ConnectedTime{}, ErrNotFound
	}

	var row struct {
		Fecha        string `dynamodbav:"Fecha"`
		Email        string `dynamodbav:"Email"`
		TotalSeconds int64  `dynamodbav:"TotalSeconds"`
		CreatedAt    string `dynamodbav:"CreatedAt"`
		UpdatedAt    string `dynamodbav:"UpdatedAt"`
	}
	if err := attributevalue.UnmarshalMap(result.Item, &row); err != nil {
		return ConnectedTime{}, fmt.Errorf("failed to unmarshal connected time: %w", err)
	}

	ct := ConnectedTime{
		Fecha:        row.Fecha,
		Email:        row.Email,
		TotalSeconds: row.TotalSeconds,
	}
	if t, err := time.Parse(time.RFC3339, row.CreatedAt); err == nil {
		ct.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, row.UpdatedAt); err == nil {
		ct.UpdatedAt = t
	}
	return ct, nil
}

// NewStore creates the appropriate store based on configuration
func NewStore(ctx context.Context, logger zerolog.Logger) (Store, error) {
	cfg := LoadDynamoConfig()

	switch cfg.Mode {
	case DynamoModeLocal, DynamoModeAWS:
		return NewDynamoDBStore(ctx, cfg, logger)
	default:
		logger.Info().Msg("DynamoDB disabled (DYNAMO_MODE=none), using in-memory store")
		return NewMemoryStore(), nil
	}
}

package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
)

// CreateTableIfNotExists creates the connected-time table for local
// development. The (Fecha, Email) key schema is the uniqueness
// constraint the upsert relies on.
func CreateTableIfNotExists(ctx context.Context, client *dynamodb.Client, config DynamoConfig, logger zerolog.Logger) error {
	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(config.ConnectedTimeTable),
	})
	if err == nil {
		logger.Info().Str("table", config.ConnectedTimeTable).Msg("table already exists")
		return nil
	}

	_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(config.ConnectedTimeTable),
		KeySchema: []dbtypes.KeySchemaElement{
			{AttributeName: aws.String("Fecha"), KeyType: dbtypes.KeyTypeHash},
			{AttributeName: aws.String("Email"), KeyType: dbtypes.KeyTypeRange},
		},
		AttributeDefinitions: []dbtypes.AttributeDefinition{
			{AttributeName: aws.String("Fecha"), AttributeType: dbtypes.ScalarAttributeTypeS},
			{AttributeName: aws.String("Email"), AttributeType: dbtypes.ScalarAttributeTypeS},
		},
		BillingMode: dbtypes.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", config.ConnectedTimeTable, err)
	}
	logger.Info().Str("table", config.ConnectedTimeTable).Msg("table created")

	return nil
}

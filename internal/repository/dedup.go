package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	pkPrefixUpdate = "UPDATE#"
	skProcessed    = "PROCESSED"
	defaultTTL     = 48 * time.Hour // Telegram stops redelivering well before this
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Client records processed update ids in a DynamoDB table so redelivered
// webhook updates are answered only once. Only ids are stored.
type Client struct {
	api       dynamodbAPI
	tableName string
	ttl       time.Duration
	now       func() time.Time
}

func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName, ttl: defaultTTL, now: time.Now}, nil
}

func updatePK(updateID int) string {
	return pkPrefixUpdate + strconv.Itoa(updateID)
}

// MarkProcessed claims an update id. It returns false when the id was
// already claimed by an earlier delivery.
func (c *Client) MarkProcessed(ctx context.Context, updateID int) (bool, error) {
	now := c.now().UTC()
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item: map[string]types.AttributeValue{
			"PK":          &types.AttributeValueMemberS{Value: updatePK(updateID)},
			"SK":          &types.AttributeValueMemberS{Value: skProcessed},
			"processedAt": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			"ttl":         &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Add(c.ttl).Unix(), 10)},
		},
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return false, nil
		}
		return false, fmt.Errorf("repository: MarkProcessed: %w", err)
	}
	return true, nil
}

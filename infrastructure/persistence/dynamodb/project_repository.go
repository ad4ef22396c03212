// Package dynamodb stores projects in a single DynamoDB table, one item per project.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"storycanvas/application/ports"
	"storycanvas/domain/core/aggregates"
	pkgerrors "storycanvas/pkg/errors"
	"storycanvas/pkg/observability"
)

const (
	entityProject = "PROJECT"
	metadataSK    = "METADATA"
)

// API is the subset of the DynamoDB client the repository uses
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// projectItem represents the DynamoDB item structure for a project
type projectItem struct {
	PK         string              `dynamodbav:"PK"`
	SK         string              `dynamodbav:"SK"`
	EntityType string              `dynamodbav:"EntityType"`
	Title      string              `dynamodbav:"Title"`
	Version    int                 `dynamodbav:"Version"`
	UpdatedAt  string              `dynamodbav:"UpdatedAt"`
	Project    *aggregates.Project `dynamodbav:"Project"`
}

// ProjectRepository implements ports.ProjectRepository on DynamoDB
type ProjectRepository struct {
	client    API
	tableName string
	logger    *zap.Logger
	metrics   *observability.Collector
}

var _ ports.ProjectRepository = (*ProjectRepository)(nil)

// NewProjectRepository creates a new ProjectRepository. metrics may be nil.
func NewProjectRepository(client API, tableName string, logger *zap.Logger, metrics *observability.Collector) *ProjectRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
		metrics:   metrics,
	}
}

func projectKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "PROJECT#" + id},
		"SK": &types.AttributeValueMemberS{Value: metadataSK},
	}
}

func toItem(p *aggregates.Project) (map[string]types.AttributeValue, error) {
	item := projectItem{
		PK:         "PROJECT#" + p.ID,
		SK:         metadataSK,
		EntityType: entityProject,
		Title:      p.Title,
		Version:    p.Version,
		UpdatedAt:  p.LastModified.UTC().Format(time.RFC3339Nano),
		Project:    p,
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal project: %w", err)
	}
	return av, nil
}

func fromItem(av map[string]types.AttributeValue) (*aggregates.Project, error) {
	var item projectItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project: %w", err)
	}
	if item.Project == nil {
		return nil, pkgerrors.NewInternalError("project item " + item.PK + " has no body")
	}
	return item.Project, nil
}

// Create stores a new project; the put fails if the key already exists
func (r *ProjectRepository) Create(ctx context.Context, project *aggregates.Project) (err error) {
	defer r.observe("create", time.Now(), &err)

	av, err := toItem(project)
	if err != nil {
		return err
	}
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.tableName),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if isConditionFailed(err) {
		return pkgerrors.NewConflictError("project " + project.ID + " already exists")
	}
	if err != nil {
		return r.mapError("create", project.ID, err)
	}

	r.logger.Debug("project created in DynamoDB", zap.String("project_id", project.ID))
	return nil
}

// GetByID retrieves a project by its ID
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (_ *aggregates.Project, err error) {
	defer r.observe("get", time.Now(), &err)

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            projectKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, r.mapError("get", id, err)
	}
	if len(out.Item) == 0 {
		return nil, pkgerrors.NewNotFoundError("project", id)
	}
	return fromItem(out.Item)
}

// Save replaces a stored project when the stored version is project.Version-1
func (r *ProjectRepository) Save(ctx context.Context, project *aggregates.Project) (err error) {
	defer r.observe("save", time.Now(), &err)

	av, err := toItem(project)
	if err != nil {
		return err
	}
	cond := expression.AttributeExists(expression.Name("PK")).
		And(expression.Name("Version").Equal(expression.Value(project.Version - 1)))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.tableName),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if isConditionFailed(err) {
		// Tell a missing project apart from a concurrent write
		if _, getErr := r.GetByID(ctx, project.ID); pkgerrors.IsNotFound(getErr) {
			return getErr
		}
		return pkgerrors.NewConflictError(fmt.Sprintf("project %s was modified concurrently (expected version %d)",
			project.ID, project.Version-1))
	}
	if err != nil {
		return r.mapError("save", project.ID, err)
	}
	return nil
}

// Delete removes a project
func (r *ProjectRepository) Delete(ctx context.Context, id string) (err error) {
	defer r.observe("delete", time.Now(), &err)

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}
	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      projectKey(id),
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if isConditionFailed(err) {
		return pkgerrors.NewNotFoundError("project", id)
	}
	if err != nil {
		return r.mapError("delete", id, err)
	}
	return nil
}

// List returns every project ordered by title
func (r *ProjectRepository) List(ctx context.Context) (_ []*aggregates.Project, err error) {
	defer r.observe("list", time.Now(), &err)

	expr, err := expression.NewBuilder().
		WithFilter(expression.Name("EntityType").Equal(expression.Value(entityProject))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build filter: %w", err)
	}

	var (
		out       []*aggregates.Project
		lastKey   map[string]types.AttributeValue
		pageCount int
	)
	for {
		page, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(r.tableName),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return nil, r.mapError("list", "", err)
		}
		pageCount++
		for _, av := range page.Items {
			p, err := fromItem(av)
			if err != nil {
				r.logger.Warn("skipping unreadable project item", zap.Error(err))
				continue
			}
			out = append(out, p)
		}
		if len(page.LastEvaluatedKey) == 0 {
			break
		}
		lastKey = page.LastEvaluatedKey
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Title == out[j].Title {
			return out[i].ID < out[j].ID
		}
		return out[i].Title < out[j].Title
	})
	r.logger.Debug("projects listed", zap.Int("count", len(out)), zap.Int("pages", pageCount))
	return out, nil
}

func (r *ProjectRepository) observe(op string, start time.Time, err *error) {
	r.metrics.RecordDBOperation(op, time.Since(start), *err)
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// mapError turns SDK failures into AppErrors
func (r *ProjectRepository) mapError(op, id string, err error) error {
	r.logger.Error("DynamoDB operation failed",
		zap.String("operation", op),
		zap.String("project_id", id),
		zap.Error(err))

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ProvisionedThroughputExceededException", "ThrottlingException", "RequestLimitExceeded":
			return pkgerrors.NewUnavailableError("dynamodb", err)
		case "ResourceNotFoundException":
			return pkgerrors.NewDatabaseError(op, fmt.Errorf("table %s not found: %w", r.tableName, err))
		}
	}
	return pkgerrors.NewDatabaseError(op, err)
}

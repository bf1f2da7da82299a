package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"claimspipe/internal/domain"
	"claimspipe/internal/logger"
	"claimspipe/internal/repository"
	repositoryIface "claimspipe/internal/repository/iface"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type runRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    logger.Logger
}

// NewRunRepository creates a new DynamoDB pipeline run repository
func NewRunRepository(client *dynamodb.Client, log logger.Logger) repositoryIface.RunRepository {
	return &runRepository{
		client:    client,
		tableName: "pipeline_runs",
		logger:    log.With(logger.String("component", "run_repository")),
	}
}

func (r *runRepository) Create(ctx context.Context, run *domain.Run) error {
	item, err := attributevalue.MarshalMap(run)
	if err != nil {
		r.logger.Error("failed to marshal run", logger.Error(err))
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})

	if err != nil {
		r.logger.Error("failed to create run", logger.Error(err))
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

func (r *runRepository) GetByID(ctx context.Context, runID string) (*domain.Run, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"run_id": &types.AttributeValueMemberS{Value: runID},
		},
	})

	if err != nil {
		r.logger.Error("failed to get run", logger.Error(err))
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("%w: %s", repository.ErrRunNotFound, runID)
	}

	var run domain.Run
	if err := attributevalue.UnmarshalMap(result.Item, &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}

	return &run, nil
}

func (r *runRepository) UpdateFields(ctx context.Context, runID string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	expr := "SET "
	names := make(map[string]string, len(fields))
	values := make(map[string]types.AttributeValue, len(fields))

	i := 0
	for field, value := range fields {
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		if i > 0 {
			expr += ", "
		}
		expr += nameKey + " = " + valueKey

		av, err := attributevalue.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal field %s: %w", field, err)
		}
		names[nameKey] = field
		values[valueKey] = av
		i++
	}

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"run_id": &types.AttributeValueMemberS{Value: runID},
		},
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})

	if err != nil {
		r.logger.Error("failed to update run fields",
			logger.String("run_id", runID),
			logger.Error(err))
		return fmt.Errorf("failed to update run fields: %w", err)
	}

	return nil
}

func (r *runRepository) AppendStep(ctx context.Context, runID string, record domain.StepRecord) error {
	recordAv, err := attributevalue.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal step record: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"run_id": &types.AttributeValueMemberS{Value: runID},
		},
		UpdateExpression: aws.String("SET #ss = list_append(if_not_exists(#ss, :empty), :rec)"),
		ExpressionAttributeNames: map[string]string{
			"#ss": "started_steps",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":rec":   &types.AttributeValueMemberL{Value: []types.AttributeValue{recordAv}},
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
		},
	})

	if err != nil {
		r.logger.Error("failed to append step record",
			logger.String("run_id", runID),
			logger.String("step", record.Name),
			logger.Error(err))
		return fmt.Errorf("failed to append step record: %w", err)
	}

	return nil
}

func (r *runRepository) SetStepStatus(ctx context.Context, runID, stepName string, status domain.StepStatus, durationMs int64) error {
	// List element updates need the index, so read first. The orchestrator,
	// stop endpoint and webhook only ever rewrite different steps, so the
	// read-then-write window is benign here.
	run, err := r.GetByID(ctx, runID)
	if err != nil {
		return err
	}

	index := -1
	for i := range run.StartedSteps {
		if run.StartedSteps[i].Name == stepName {
			index = i
			break
		}
	}
	if index == -1 {
		return fmt.Errorf("step record %s not found on run %s", stepName, runID)
	}

	expr := fmt.Sprintf("SET #ss[%d].#st = :status", index)
	values := map[string]types.AttributeValue{
		":status": &types.AttributeValueMemberS{Value: string(status)},
	}
	names := map[string]string{
		"#ss": "started_steps",
		"#st": "status",
	}
	if durationMs >= 0 {
		expr += fmt.Sprintf(", #ss[%d].#dur = :duration", index)
		names["#dur"] = "duration_ms"
		values[":duration"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", durationMs)}
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"run_id": &types.AttributeValueMemberS{Value: runID},
		},
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})

	if err != nil {
		r.logger.Error("failed to set step status",
			logger.String("run_id", runID),
			logger.String("step", stepName),
			logger.Error(err))
		return fmt.Errorf("failed to set step status: %w", err)
	}

	return nil
}

func (r *runRepository) ClaimNotification(ctx context.Context, runID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"run_id": &types.AttributeValueMemberS{Value: runID},
		},
		UpdateExpression:    aws.String("SET slack_notified = :yes"),
		ConditionExpression: aws.String("attribute_not_exists(slack_notified) OR slack_notified = :no"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":yes": &types.AttributeValueMemberBOOL{Value: true},
			":no":  &types.AttributeValueMemberBOOL{Value: false},
		},
	})

	if err != nil {
		var conditionalCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckErr) {
			return fmt.Errorf("%w: run_id=%s", repository.ErrAlreadyNotified, runID)
		}

		r.logger.Error("failed to claim notification guard",
			logger.String("run_id", runID),
			logger.Error(err))
		return fmt.Errorf("failed to claim notification guard: %w", err)
	}

	return nil
}

func (r *runRepository) GetMostRecent(ctx context.Context) (*domain.Run, error) {
	runs, err := r.queryByStartTime(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, repository.ErrRunNotFound
	}
	return runs[0], nil
}

func (r *runRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Run, error) {
	return r.queryByStartTime(ctx, limit)
}

// queryByStartTime queries the start_time_index GSI newest first
func (r *runRepository) queryByStartTime(ctx context.Context, limit int) ([]*domain.Run, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("start_time_index"),
		KeyConditionExpression: aws.String("record_type = :rt"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":rt": &types.AttributeValueMemberS{Value: domain.RunRecordType},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})

	if err != nil {
		r.logger.Error("failed to query runs", logger.Error(err))
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	runs := make([]*domain.Run, 0, len(result.Items))
	for _, item := range result.Items {
		var run domain.Run
		if err := attributevalue.UnmarshalMap(item, &run); err != nil {
			r.logger.Warn("failed to unmarshal run", logger.Error(err))
			continue
		}
		runs = append(runs, &run)
	}

	return runs, nil
}

//go:build gcloud

package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	taskspb "cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/config"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/domain"
)

// CloudTasksNotifier enqueues fired reminders as Cloud Tasks HTTP tasks
// targeting the delivery endpoint.
type CloudTasksNotifier struct {
	client     *cloudtasks.Client
	projectID  string
	locationID string
	queueID    string
	targetURL  string
	maxRetries int
}

func NewCloudTasksNotifier(ctx context.Context, cfg config.NotifierConfig) (*CloudTasksNotifier, error) {
	client, err := cloudtasks.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud tasks client: %w", err)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &CloudTasksNotifier{
		client:     client,
		projectID:  cfg.GCloudProjectID,
		locationID: cfg.GCloudLocationID,
		queueID:    cfg.GCloudQueueID,
		targetURL:  cfg.GCloudTargetURL,
		maxRetries: maxRetries,
	}, nil
}

// NewFromConfig builds the gcloud platform notifier. The returned closer
// releases the Cloud Tasks client.
func NewFromConfig(ctx context.Context, cfg config.NotifierConfig) (domain.Notifier, func() error, error) {
	n, err := NewCloudTasksNotifier(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return n, n.Close, nil
}

func (n *CloudTasksNotifier) Notify(ctx context.Context, notification *domain.Notification) error {
	payload, err := json.Marshal(payloadFrom(notification))
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	queuePath := fmt.Sprintf("projects/%s/locations/%s/queues/%s",
		n.projectID, n.locationID, n.queueID)

	req := &taskspb.CreateTaskRequest{
		Parent: queuePath,
		Task: &taskspb.Task{
			MessageType: &taskspb.Task_HttpRequest{
				HttpRequest: &taskspb.HttpRequest{
					HttpMethod: taskspb.HttpMethod_POST,
					Url:        n.targetURL,
					Headers: map[string]string{
						"Content-Type": "application/json",
					},
					Body: payload,
				},
			},
			ScheduleTime: timestamppb.New(notification.FiredAt),
		},
	}

	var lastErr error
	for attempt := 0; attempt < n.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := backoffFor(attempt)
			slog.DebugContext(ctx, "retrying notification task creation",
				slog.String("kind", notification.Kind.String()),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := n.createTask(ctx, req, notification.Kind.String()); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	slog.ErrorContext(ctx, "all retries exhausted for notification task creation",
		slog.String("kind", notification.Kind.String()),
		slog.Int("max_retries", n.maxRetries),
		slog.String("error", lastErr.Error()),
	)
	return fmt.Errorf("failed to create notification task after %d retries: %w", n.maxRetries, lastErr)
}

func (n *CloudTasksNotifier) createTask(ctx context.Context, req *taskspb.CreateTaskRequest, kind string) error {
	createdTask, err := n.client.CreateTask(ctx, req)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			slog.InfoContext(ctx, "notification task already exists",
				slog.String("kind", kind),
			)
			return nil
		}
		slog.WarnContext(ctx, "failed to create notification task",
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create cloud task: %w", err)
	}

	slog.InfoContext(ctx, "notification task created",
		slog.String("task_name", createdTask.Name),
		slog.String("kind", kind),
	)
	return nil
}

func (n *CloudTasksNotifier) Close() error {
	return n.client.Close()
}

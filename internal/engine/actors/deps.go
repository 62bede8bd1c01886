package actors

import (
	stdctx "context"
	"fmt"
	"time"

	"gator-forum/internal/database"
	"gator-forum/internal/events"
	"gator-forum/internal/feed"
	"gator-forum/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// Deps are the collaborators shared by every actor.
type Deps struct {
	DB      database.DBAdapter
	Feeds   *feed.Composer
	Events  events.Publisher
	Metrics *utils.MetricsCollector
	Logger  *zap.Logger
	Timeout time.Duration // budget for the store calls of one message
}

// HealthCheckMsg is answered with true by every actor that is processing its mailbox.
type HealthCheckMsg struct{}

func (d *Deps) storeContext() (stdctx.Context, stdctx.CancelFunc) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return stdctx.WithTimeout(stdctx.Background(), timeout)
}

// publish emits an event; failures are logged and never undo the mutation.
func (d *Deps) publish(eventType, key string, payload any) {
	ctx, cancel := d.storeContext()
	defer cancel()
	if err := d.Events.Publish(ctx, events.New(eventType, key, payload)); err != nil {
		d.Logger.Warn("failed to publish event",
			zap.String("type", eventType),
			zap.String("key", key),
			zap.Error(err))
	}
}

// respond answers the sender with result, or with the error as an *utils.AppError,
// and records the operation latency.
func (d *Deps) respond(context actor.Context, operation string, start time.Time, result any, err error) {
	d.Metrics.AddOperationLatency(operation, time.Since(start))
	if err != nil {
		appErr := utils.AsAppError(err)
		if appErr.Code == utils.ErrDatabase {
			d.Logger.Error("operation failed", zap.String("operation", operation), zap.Error(err))
		}
		context.Respond(appErr)
		return
	}
	context.Respond(result)
}

// lifecycle logs the system messages every actor receives. It reports
// whether msg was one of them.
func (d *Deps) lifecycle(name string, msg any) bool {
	switch msg.(type) {
	case *actor.Started:
		d.Logger.Info(name + " started")
	case *actor.Stopping:
		d.Logger.Info(name + " stopping")
	case *actor.Stopped:
		d.Logger.Info(name + " stopped")
	case *actor.Restarting:
		d.Logger.Warn(name + " restarting")
	default:
		return false
	}
	return true
}

func invalidInput(message string) *utils.AppError {
	return utils.NewAppError(utils.ErrInvalidInput, message, nil)
}

func forbidden(message string) *utils.AppError {
	return utils.NewAppError(utils.ErrForbidden, message, nil)
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}

package webhook

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Dispatcher schedules an annotation without waiting for it.
type Dispatcher interface {
	Dispatch(userID, activityID int64) error
}

// AthleteRemover forgets an athlete's credentials and preferences.
type AthleteRemover interface {
	Delete(ctx context.Context, userID int64) error
}

// Processor acts on verified events.
type Processor struct {
	dispatcher Dispatcher
	remover    AthleteRemover
	logger     *zap.Logger
}

func NewProcessor(dispatcher Dispatcher, remover AthleteRemover, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{dispatcher: dispatcher, remover: remover, logger: logger}
}

// Handle routes e: new activities are annotated in the background and
// deauthorizations delete the athlete. Other events are ignored.
func (p *Processor) Handle(ctx context.Context, e Event) error {
	p.logger.Info("webhook event",
		zap.Int64("owner_id", e.OwnerID),
		zap.String("object_type", e.ObjectType),
		zap.Int64("object_id", e.ObjectID),
		zap.String("aspect_type", e.AspectType),
	)

	if e.TriggersAnnotation() {
		if err := p.dispatcher.Dispatch(e.OwnerID, e.ObjectID); err != nil {
			return fmt.Errorf("dispatch activity %d: %w", e.ObjectID, err)
		}
	}
	if e.Deauthorizes() {
		if err := p.remover.Delete(ctx, e.OwnerID); err != nil {
			return fmt.Errorf("delete athlete %d: %w", e.OwnerID, err)
		}
		p.logger.Info("athlete deauthorized", zap.Int64("athlete_id", e.OwnerID))
	}
	return nil
}

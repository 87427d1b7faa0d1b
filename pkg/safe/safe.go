package safe

import (
	"go.uber.org/zap"
)

// Run executes fn and turns a panic into an error log instead of taking the
// process down. Scheduled jobs run through this so one misbehaving sweep
// cannot stop the scheduler.
func Run(logger *zap.Logger, component string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic recovered",
				zap.Any("recover", r),
				zap.String("component", component),
				zap.Stack("stack"),
			)
		}
	}()

	fn()
}

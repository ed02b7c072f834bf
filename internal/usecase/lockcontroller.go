// Package usecase contains application business logic.
package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/pomlock/internal/domain"
)

// LockControllerImpl implements domain.LockController on top of a device
// lister, a matcher and an actuator. Every call starts from a fresh listing.
type LockControllerImpl struct {
	lister   domain.DeviceLister
	actuator domain.DeviceActuator
	matcher  domain.DeviceMatcher
	logger   *zap.Logger
}

// NewLockController creates a new lock controller.
func NewLockController(
	lister domain.DeviceLister,
	actuator domain.DeviceActuator,
	matcher domain.DeviceMatcher,
	logger *zap.Logger,
) *LockControllerImpl {
	return &LockControllerImpl{
		lister:   lister,
		actuator: actuator,
		matcher:  matcher,
		logger:   logger,
	}
}

// Status returns the aggregate attachment state of class.
func (c *LockControllerImpl) Status(ctx context.Context, class domain.DeviceClass) (domain.AttachmentState, error) {
	listing, err := c.lister.ListInputDevices(ctx)
	if err != nil {
		return domain.Unknown, err
	}
	return c.matcher.Classify(listing, class), nil
}

// Disable floats every attached device of class.
func (c *LockControllerImpl) Disable(ctx context.Context, class domain.DeviceClass) (domain.LockResult, error) {
	return c.apply(ctx, class, domain.ActionDisable)
}

// Enable re-attaches every floating device of class.
func (c *LockControllerImpl) Enable(ctx context.Context, class domain.DeviceClass) (domain.LockResult, error) {
	return c.apply(ctx, class, domain.ActionEnable)
}

// EnableAllFloating re-attaches every floating device regardless of class or
// name. Rescue path for devices floated by something other than pomlock.
func (c *LockControllerImpl) EnableAllFloating(ctx context.Context) (domain.LockResult, error) {
	result := domain.LockResult{Action: domain.ActionEnable}

	listing, err := c.lister.ListInputDevices(ctx)
	if err != nil {
		c.logger.Error("device query failed", zap.Error(err))
		return result, err
	}

	return c.mutate(ctx, result, c.matcher.ExtractFloating(listing))
}

// apply is the single code path for both directions: query, skip when there
// is nothing to mutate, otherwise act on every matched device.
func (c *LockControllerImpl) apply(ctx context.Context, class domain.DeviceClass, action domain.LockAction) (domain.LockResult, error) {
	result := domain.LockResult{Class: class, Action: action}

	listing, err := c.lister.ListInputDevices(ctx)
	if err != nil {
		c.logger.Error("device query failed",
			zap.String("class", string(class)),
			zap.String("action", string(action)),
			zap.Error(err))
		return result, err
	}

	// Disable targets attached devices, Enable targets floating ones
	source := domain.Attached
	if action == domain.ActionEnable {
		source = domain.Detached
	}

	targets := c.matcher.Extract(listing, class, source)
	if len(targets) == 0 {
		c.logger.Debug("already in target state",
			zap.String("class", string(class)),
			zap.String("action", string(action)))
		result.Noop = true
		return result, nil
	}

	return c.mutate(ctx, result, targets)
}

func (c *LockControllerImpl) mutate(ctx context.Context, result domain.LockResult, targets []domain.DeviceRecord) (domain.LockResult, error) {
	if len(targets) == 0 {
		result.Noop = true
		return result, nil
	}

	var causes []error
	for _, dev := range targets {
		var err error
		if result.Action == domain.ActionDisable {
			err = c.actuator.Detach(ctx, dev.ID)
		} else {
			err = c.actuator.Attach(ctx, dev.ID)
		}

		if err != nil {
			c.logger.Warn("device action failed",
				zap.String("action", string(result.Action)),
				zap.Int("id", dev.ID),
				zap.String("device", dev.Name),
				zap.Error(err))
			result.Failed = append(result.Failed, dev.ID)
			causes = append(causes, err)
			continue
		}

		c.logger.Debug("device action applied",
			zap.String("action", string(result.Action)),
			zap.Int("id", dev.ID),
			zap.String("device", dev.Name))
		result.Succeeded = append(result.Succeeded, dev.ID)
	}

	if len(result.Failed) > 0 {
		return result, &domain.PartialLockFailure{
			Class:     result.Class,
			Action:    result.Action,
			Succeeded: result.Succeeded,
			Failed:    result.Failed,
			Causes:    causes,
		}
	}

	c.logger.Info("input devices updated",
		zap.String("class", string(result.Class)),
		zap.String("action", string(result.Action)),
		zap.Ints("ids", result.Succeeded))
	return result, nil
}

// Ensure LockControllerImpl implements domain.LockController.
var _ domain.LockController = (*LockControllerImpl)(nil)

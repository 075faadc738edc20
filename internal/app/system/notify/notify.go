// Package notify runs best-effort side effects: notification emails,
// calendar deletes on cancel, folder provisioning. A failure is logged and
// swallowed so it can never change the outcome of the primary write. This
// is a correctness requirement, not a convenience: the entity state is
// already committed by the time these run.
package notify

import (
	"go.uber.org/zap"
)

// BestEffort runs fn and logs a warning on failure. The what string names
// the side effect in logs; fields add context (recipient, entity id).
func BestEffort(log *zap.Logger, what string, fn func() error, fields ...zap.Field) {
	if err := fn(); err != nil {
		log.Warn("best-effort side effect failed: "+what,
			append(fields, zap.Error(err))...)
	}
}

// All runs each fn in order, logging failures individually. Used for
// attendee fan-out where one bad address must not block the rest.
func All(log *zap.Logger, what string, fns []func() error, fields ...zap.Field) {
	for _, fn := range fns {
		BestEffort(log, what, fn, fields...)
	}
}

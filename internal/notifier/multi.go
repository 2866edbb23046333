package notifier

import (
	"context"
	"errors"

	"github.com/amishk599/jobradar/internal/model"
)

// Ensure Multi implements model.Notifier.
var _ model.Notifier = Multi(nil)

// Multi fans a batch out to several notifiers. Every notifier is tried;
// their errors are joined.
type Multi []model.Notifier

// Notify calls each notifier in order.
func (m Multi) Notify(ctx context.Context, jobs []model.Job) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, jobs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

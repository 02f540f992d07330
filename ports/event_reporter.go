package ports

import (
	"context"

	"gosplit/domain/experiment"
)

// EventReporter is the fire-and-forget transport for exposure/conversion
// events. Delivery is best-effort: implementations must not block the
// caller on network I/O, and a returned error is for logging only; it
// never propagates into the assignment path.
type EventReporter interface {
	Send(ctx context.Context, event experiment.Event) error
}

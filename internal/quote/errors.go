package quote

import (
	"context"
	"errors"
	"net"
)

// TransportErr maps a transport-level failure onto the source taxonomy:
// timeouts become ErrSourceTimeout, everything else ErrSourceUnavailable.
func TransportErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrSourceTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ErrSourceTimeout
	}
	return ErrSourceUnavailable
}

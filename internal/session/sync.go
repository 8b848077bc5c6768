package session

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jonathan/job-board-client/internal/broadcast"
)

// handlerTimeout bounds the storage work done while applying a peer event.
const handlerTimeout = 5 * time.Second

// Synchronizer applies other tabs' session events to a Session and publishes
// the Session's own. A nil Synchronizer is a disabled one.
type Synchronizer struct {
	session *Session
	port    broadcast.Port
	nav     Navigator
	logger  logrus.FieldLogger
	cancel  func()
}

func attach(s *Session, port broadcast.Port, nav Navigator, logger logrus.FieldLogger) *Synchronizer {
	y := &Synchronizer{session: s, port: port, nav: nav, logger: logger.WithField("port", port.ID())}
	y.cancel = port.Listen(y.handle)
	return y
}

// OpenPort opens name on transport. Failure disables synchronization rather
// than failing the caller, so it is logged at debug level and nil is returned.
func OpenPort(ctx context.Context, transport broadcast.Transport, name string, logger logrus.FieldLogger) broadcast.Port {
	if transport == nil {
		return nil
	}
	port, err := transport.Open(ctx, name)
	if err != nil {
		if logger != nil {
			logger.WithError(err).WithField("channel", name).Debug("broadcast channel unavailable, cross-tab sync disabled")
		}
		return nil
	}
	return port
}

func (y *Synchronizer) handle(ev broadcast.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	switch ev.Type {
	case broadcast.EventLoginSuccess:
		y.logger.WithField("origin", ev.Origin).Debug("peer logged in")
		y.session.adopt(ctx, ev.User)
	case broadcast.EventLogout:
		y.logger.WithField("origin", ev.Origin).Debug("peer logged out")
		y.session.logout(ctx, false)
		if y.nav != nil && y.nav.CurrentPath() != LoginPath {
			y.nav.Navigate(HomePath)
		}
	default:
		y.logger.WithField("type", ev.Type).Debug("ignoring unknown broadcast")
	}
}

func (y *Synchronizer) broadcast(ctx context.Context, ev broadcast.Event) {
	if y == nil {
		return
	}
	if err := y.port.Publish(ctx, ev); err != nil {
		y.logger.WithError(err).WithField("type", ev.Type).Warn("broadcast failed")
	}
}

func (y *Synchronizer) detach() {
	if y == nil || y.cancel == nil {
		return
	}
	y.cancel()
	y.cancel = nil
}

package changefeed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
)

// Channel is the NOTIFY channel fed by the notify_table_change trigger.
const Channel = "table_changes"

// Listener turns Postgres notifications into change events.
type Listener struct {
	*Broker
	listener *pq.Listener
	logger   core.Logger
}

func NewListener(dsn string, logger core.Logger) (*Listener, error) {
	l := &Listener{Broker: NewBroker(), logger: logger}
	l.listener = pq.NewListener(dsn, 10*time.Second, time.Minute, l.onEvent)
	if err := l.listener.Listen(Channel); err != nil {
		_ = l.listener.Close()
		return nil, errors.Wrap(err, "listening to "+Channel)
	}
	return l, nil
}

func (l *Listener) onEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnectionAttemptFailed, pq.ListenerEventDisconnected:
		l.logger.Warn("change feed connection lost", err)
	case pq.ListenerEventReconnected:
		l.logger.Info("change feed reconnected")
	}
}

// Run dispatches notifications until ctx is done.
func (l *Listener) Run(ctx context.Context) error {
	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return l.listener.Close()

		case n := <-l.listener.Notify:
			if n == nil { // reconnected: events may have been missed
				l.Publish(resyncEvent)
				continue
			}
			var ev core.ChangeEvent
			if err := json.Unmarshal([]byte(n.Extra), &ev); err != nil {
				l.logger.Error("decoding change event", err, n.Extra)
				continue
			}
			l.Publish(ev)

		case <-ping.C:
			go func() {
				if err := l.listener.Ping(); err != nil {
					l.logger.Warn("pinging change feed", err)
				}
			}()
		}
	}
}

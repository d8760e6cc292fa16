// ABOUTME: Inbound message router
// ABOUTME: Classifies frames and applies notifications and matched responses to the store
package spotlink

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/spotlink/spotlink/pkg/mirror"
	"github.com/spotlink/spotlink/pkg/protocol"
)

// Outcome describes what happened to one inbound frame.
type Outcome int

const (
	// Applied means the store changed.
	Applied Outcome = iota
	// Ignored means the frame was valid but carried nothing to merge.
	Ignored
	// Unmatched means a response arrived for no pending request.
	Unmatched
	// Rejected means the server answered with an error.
	Rejected
	// Malformed means the frame could not be decoded.
	Malformed
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Ignored:
		return "ignored"
	case Unmatched:
		return "unmatched"
	case Rejected:
		return "rejected"
	case Malformed:
		return "malformed"
	}
	return "unknown"
}

// Dispatcher routes inbound frames to the store. It never returns an error;
// every failure is logged and the frame dropped.
type Dispatcher struct {
	store   *mirror.Store
	tracker *Tracker
	log     logrus.FieldLogger
}

// NewDispatcher creates a dispatcher over store and tracker.
func NewDispatcher(store *mirror.Store, tracker *Tracker, log logrus.FieldLogger) *Dispatcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{store: store, tracker: tracker, log: log}
}

// Dispatch handles one raw frame.
func (d *Dispatcher) Dispatch(data []byte) Outcome {
	msg, err := protocol.Decode(data)
	if err != nil {
		level := logrus.WarnLevel
		if errors.Is(err, protocol.ErrUnclassified) {
			level = logrus.DebugLevel
		}
		d.log.WithError(err).WithField("frame", truncateFrame(data)).Log(level, "Dropping inbound message")
		return Malformed
	}

	switch m := msg.(type) {
	case *protocol.Notification:
		return d.handleNotification(m)
	case *protocol.Response:
		return d.handleResponse(m)
	}
	return Malformed
}

func (d *Dispatcher) handleNotification(n *protocol.Notification) Outcome {
	log := d.log.WithField("event", n.Method)

	ev, err := protocol.DecodeEvent(n)
	if err != nil {
		log.WithError(err).Warn("Dropping notification")
		return Malformed
	}

	if _, unknown := ev.(protocol.UnknownEvent); unknown {
		log.Debug("Ignoring unknown notification")
		return Ignored
	}

	if !d.store.ApplyNotification(ev) {
		return Ignored
	}
	log.Debug("Applied notification")
	return Applied
}

func (d *Dispatcher) handleResponse(r *protocol.Response) Outcome {
	log := d.log.WithField("id", r.ID)

	pending, ok := d.tracker.Resolve(r.ID)
	if !ok {
		log.Debug("Discarding response with no pending request")
		return Unmatched
	}
	log = log.WithField("method", pending.Method)

	if r.Error != nil {
		log.WithError(r.Error).Warn("Server rejected request")
		return Rejected
	}

	res, err := protocol.DecodeResult(pending.Method, r.Result)
	if err != nil {
		log.WithError(err).Warn("Dropping response")
		return Malformed
	}

	if !d.store.ApplyResponse(res) {
		log.Debug("Request acknowledged")
		return Ignored
	}
	log.Debug("Applied response")
	return Applied
}

func truncateFrame(data []byte) string {
	const limit = 256
	if len(data) > limit {
		return string(data[:limit]) + "..."
	}
	return string(data)
}

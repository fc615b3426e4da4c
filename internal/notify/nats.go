package notify

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// NATSNotifier shares the signal between instances over a NATS subject
type NATSNotifier struct {
	*Hub
	conn    *nats.Conn
	subject string
	sub     *nats.Subscription
	logger  *logrus.Logger
}

// NewNATSNotifier connects to url and subscribes to subject
func NewNATSNotifier(url, subject string, logger *logrus.Logger) (*NATSNotifier, error) {
	conn, err := nats.Connect(url, nats.Name("idcard-reissue-api"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	n := &NATSNotifier{
		Hub:     NewHub(),
		conn:    conn,
		subject: subject,
		logger:  logger,
	}

	sub, err := conn.Subscribe(subject, func(msg *nats.Msg) {
		n.logger.WithField("subject", msg.Subject).Debug("Storage change received")
		n.Broadcast()
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", subject, err)
	}
	n.sub = sub

	logger.WithFields(logrus.Fields{
		"url":     url,
		"subject": subject,
	}).Info("Subscribed to NATS storage notifications")
	return n, nil
}

// Publish sends the signal on the subject
func (n *NATSNotifier) Publish(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	if err := n.conn.Publish(n.subject, []byte(Signal)); err != nil {
		return fmt.Errorf("publish to %s: %w", n.subject, err)
	}
	return nil
}

// Close drains the subscription and closes the connection
func (n *NATSNotifier) Close() error {
	if err := n.sub.Unsubscribe(); err != nil {
		n.logger.WithError(err).Warn("Failed to unsubscribe from NATS")
	}
	n.conn.Close()
	return n.Hub.Close()
}

package notify

import (
	"fmt"

	"github.com/gregdel/pushover"
	"github.com/sirupsen/logrus"
)

const (
	PriorityNormal = 0
	PriorityHigh   = 1
)

// Announcement is a composed announcement ready to be published.
type Announcement struct {
	TrainType string
	Departure string // HH:MM
	Text      string
	Notices   []string
}

// Title is the push title, e.g. "Omroep Intercity 09:05".
func (a Announcement) Title() string {
	if a.TrainType == "" {
		return "Omroep"
	}
	return fmt.Sprintf("Omroep %s %s", a.TrainType, a.Departure)
}

// Priority is high when the announcement carries service notices.
func (a Announcement) Priority() int {
	if len(a.Notices) > 0 {
		return PriorityHigh
	}
	return PriorityNormal
}

// Notifier publishes announcements to a Pushover recipient.
type Notifier struct {
	app       *pushover.Pushover
	recipient *pushover.Recipient
	logger    *logrus.Logger
}

func NewNotifier(token, userKey string, logger *logrus.Logger) *Notifier {
	return &Notifier{
		app:       pushover.New(token),
		recipient: pushover.NewRecipient(userKey),
		logger:    logger,
	}
}

func (n *Notifier) Publish(a Announcement) error {
	msg := pushover.NewMessageWithTitle(a.Text, a.Title())
	msg.Priority = a.Priority()

	resp, err := n.app.SendMessage(msg, n.recipient)
	if err != nil {
		return fmt.Errorf("publishing announcement: %w", err)
	}

	n.logger.WithFields(logrus.Fields{
		"title":      a.Title(),
		"priority":   msg.Priority,
		"status":     resp.Status,
		"request_id": resp.ID,
	}).Info("announcement published")

	return nil
}

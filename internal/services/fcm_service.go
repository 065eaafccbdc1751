package services

import (
	"context"
	"log"

	"firebase.google.com/go/messaging"
)

// FCMService sends push notifications about document review results. It is
// optional: a nil client turns every send into a no-op.
type FCMService struct {
	Client *messaging.Client
}

func (s *FCMService) Send(ctx context.Context, token, title, body string) error {
	if s == nil || s.Client == nil || token == "" {
		return nil
	}

	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority_channel",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority": "10",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: title,
						Body:  body,
					},
					Sound: "default",
				},
			},
		},
	}

	response, err := s.Client.Send(ctx, message)
	if err != nil {
		log.Printf("fcm: failed to send notification: %v", err)
		return err
	}
	log.Printf("fcm: notification sent: %s", response)
	return nil
}

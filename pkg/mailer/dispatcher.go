package mailer

import (
	"context"
	"errors"

	"storefront-accounts/pkg/helpers"

	tpl "storefront-accounts/pkg/mailer/templates"
)

// QueueDispatcher enqueues email jobs on RabbitMQ; the email worker binary
// consumes the queue and delivers through Mailgun. Enqueueing is best-effort
// from the caller's point of view.
type QueueDispatcher struct {
	Pub *helpers.RabbitPublisher
}

func NewQueueDispatcher(pub *helpers.RabbitPublisher) *QueueDispatcher {
	return &QueueDispatcher{Pub: pub}
}

func (d *QueueDispatcher) SendActivationEmail(ctx context.Context, to, firstName, link string) error {
	return d.publish(ctx, to, tpl.Activation, firstName, link)
}

func (d *QueueDispatcher) SendResetEmail(ctx context.Context, to, firstName, link string) error {
	return d.publish(ctx, to, tpl.ResetPassword, firstName, link)
}

func (d *QueueDispatcher) publish(ctx context.Context, to, template, firstName, link string) error {
	if d == nil || d.Pub == nil {
		return errors.New("email queue not configured")
	}
	job := EmailJob{
		To:       to,
		Template: template,
		Data: map[string]any{
			"FirstName": firstName,
			"Link":      link,
		},
	}
	return d.Pub.PublishJSON(ctx, job)
}

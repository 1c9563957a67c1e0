// Package notify là cổng gửi thông báo duy nhất của hệ thống.
// Tầng nghiệp vụ chỉ gọi Notifier.Notify; việc dựng nội dung email và gọi nhà cung cấp nằm ở đây.
package notify

import (
	"context"
	"fmt"
)

type Kind string

const (
	KindLoginLink           Kind = "login_link"
	KindApplicationReceived Kind = "application_received"
	KindReviewRequested     Kind = "review_requested"
	KindApplicationReviewed Kind = "application_reviewed"
)

// Notifier gửi một sự kiện tới một người nhận.
type Notifier interface {
	Notify(ctx context.Context, kind Kind, recipient string, data map[string]any) error
}

// SlotLine là một dòng slot hiển thị trong email.
type SlotLine struct {
	Date   string
	Start  string
	End    string
	Room   string
	Status string
}

type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender là adapter tới nhà cung cấp email (log, HTTP API, Gmail).
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer cài đặt Notifier: render template theo kind rồi chuyển cho Sender.
type Mailer struct {
	renderer *Renderer
	sender   Sender
}

func NewMailer(sender Sender) *Mailer {
	return &Mailer{renderer: NewRenderer(), sender: sender}
}

func (m *Mailer) Notify(ctx context.Context, kind Kind, recipient string, data map[string]any) error {
	msg, err := m.renderer.Render(kind, data)
	if err != nil {
		return err
	}
	msg.To = recipient
	if err := m.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %s to %s: %w", kind, recipient, err)
	}
	return nil
}

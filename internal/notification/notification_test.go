package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"gopkg.in/gomail.v2"

	"github.com/tamweel-auto/waitlist/internal/logging"
)

type recordingNotifier struct {
	got []Message
	err error
}

func (r *recordingNotifier) Send(_ context.Context, m Message) error {
	r.got = append(r.got, m)
	return r.err
}

func TestMultiDeliversToAll(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("smtp down")}
	ok := &recordingNotifier{}
	multi := Multi{NewLoggerNotifier(logging.Discard()), failing, ok, nil}

	err := multi.Send(context.Background(), Message{Kind: KindWaitlistJoined, Body: "hi"})
	if err == nil {
		t.Fatalf("expected joined error")
	}
	if len(failing.got) != 1 || len(ok.got) != 1 {
		t.Fatalf("expected every notifier to be called")
	}
}

type fakeSender struct {
	sent []*gomail.Message
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	f.sent = append(f.sent, m...)
	return nil
}

func TestSMTPNotifierOnlyEmailsJoins(t *testing.T) {
	sender := &fakeSender{}
	n := &SMTPNotifier{sender: sender, from: "waitlist@example.com"}
	ctx := context.Background()

	if err := n.Send(ctx, Message{Kind: KindDocumentCompleted, Destination: "a@example.com"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := n.Send(ctx, Message{Kind: KindWaitlistJoined, Destination: "a@example.com", Subject: "Welcome", Body: "hi"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(sender.sent))
	}
	if to := sender.sent[0].GetHeader("To"); len(to) != 1 || to[0] != "a@example.com" {
		t.Fatalf("unexpected recipient %v", to)
	}
}

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return nil
}

func TestAMQPNotifierRoutesByKind(t *testing.T) {
	ch := &fakeChannel{}
	n := &AMQPNotifier{channel: ch, exchange: "waitlist.events"}

	msg := Message{Kind: KindDocumentFailed, Body: "conversion failed", Attributes: map[string]string{"upload_id": "u1"}}
	if err := n.Send(context.Background(), msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	if ch.exchange != "waitlist.events" || ch.key != KindDocumentFailed {
		t.Fatalf("unexpected routing %s/%s", ch.exchange, ch.key)
	}
	if ch.msg.DeliveryMode != amqp.Persistent {
		t.Fatalf("expected persistent delivery")
	}
	var decoded Message
	if err := json.Unmarshal(ch.msg.Body, &decoded); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if decoded.Attributes["upload_id"] != "u1" {
		t.Fatalf("unexpected body %s", ch.msg.Body)
	}
}

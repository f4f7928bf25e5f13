package tests

import (
	"context"
	"sync"
	"sync/atomic"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/codelab-edu/grader/internal/sandbox"
)

// FakeSandbox implements sandbox.Sandbox without spawning processes. Tests
// drive it through CheckErr and ExecuteFn and can observe call counts.
type FakeSandbox struct {
	CheckErr  error
	ExecuteFn func(ctx context.Context, program sandbox.Program, input string, limits sandbox.Limits) (sandbox.Outcome, error)

	checkCalls   atomic.Int64
	executeCalls atomic.Int64
}

func (f *FakeSandbox) Check(_ context.Context, _ string) error {
	f.checkCalls.Add(1)
	return f.CheckErr
}

func (f *FakeSandbox) Execute(
	ctx context.Context,
	program sandbox.Program,
	input string,
	limits sandbox.Limits,
) (sandbox.Outcome, error) {
	f.executeCalls.Add(1)
	if f.ExecuteFn == nil {
		return sandbox.Outcome{}, nil
	}
	return f.ExecuteFn(ctx, program, input, limits)
}

func (f *FakeSandbox) CheckCalls() int64 {
	return f.checkCalls.Load()
}

func (f *FakeSandbox) ExecuteCalls() int64 {
	return f.executeCalls.Load()
}

// FakeChannel implements queue.Channel in memory. Published messages are
// recorded; Consume hands out the Deliveries channel.
type FakeChannel struct {
	PublishErr error
	Deliveries chan amqp.Delivery

	mu        sync.Mutex
	published []PublishedMessage
}

type PublishedMessage struct {
	Key string
	Msg amqp.Publishing
}

func NewFakeChannel() *FakeChannel {
	return &FakeChannel{
		Deliveries: make(chan amqp.Delivery, 16),
	}
}

func (f *FakeChannel) Publish(_, key string, _, _ bool, msg amqp.Publishing) error {
	if f.PublishErr != nil {
		return f.PublishErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, PublishedMessage{Key: key, Msg: msg})
	return nil
}

func (f *FakeChannel) QueueDeclare(
	name string,
	_, _, _, _ bool,
	_ amqp.Table,
) (amqp.Queue, error) {
	return amqp.Queue{Name: name}, nil
}

func (f *FakeChannel) Consume(
	_, _ string,
	_, _, _, _ bool,
	_ amqp.Table,
) (<-chan amqp.Delivery, error) {
	return f.Deliveries, nil
}

func (f *FakeChannel) Published() []PublishedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]PublishedMessage, len(f.published))
	copy(out, f.published)
	return out
}

// AngelaMos | 2026
// kafka_test.go

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queueReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	drained   context.CancelFunc
}

func (r *queueReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) == 0 {
		r.mu.Unlock()
		r.drained()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.queue[0]
	r.queue = r.queue[1:]
	r.mu.Unlock()
	return m, nil
}

func (r *queueReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *queueReader) Close() error { return nil }

type topicWriter struct {
	written []kafka.Message
	err     error
}

func (w *topicWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *topicWriter) Close() error { return nil }

type rejectingMailer struct {
	reject string
	sent   []string
}

func (m *rejectingMailer) Send(_ context.Context, msg Message) error {
	if msg.To == m.reject {
		return errors.New("address rejected")
	}
	m.sent = append(m.sent, msg.To)
	return nil
}

func queued(t *testing.T, offset int64, to string) kafka.Message {
	t.Helper()
	value, err := json.Marshal(Message{Kind: KindOrderConfirmation, To: to})
	require.NoError(t, err)
	return kafka.Message{Topic: "storefront.notifications", Offset: offset, Key: []byte(to), Value: value}
}

func newTestConsumer(r messageReader, dead messageWriter, mailer Mailer) *Consumer {
	return &Consumer{
		r:      r,
		dead:   dead,
		mailer: mailer,
		cfg:    ConsumerConfig{MaxAttempts: 2, RetryDelay: time.Millisecond},
		logger: quietLogger(),
	}
}

func TestConsumerSkipsUndeliverableMessage(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	reader := &queueReader{
		queue: []kafka.Message{
			queued(t, 1, "a@x.com"),
			queued(t, 2, "bounce@x.com"),
			{Topic: "storefront.notifications", Offset: 3, Value: []byte("{not json")},
			queued(t, 4, "b@x.com"),
		},
		drained: cancel,
	}
	dead := &topicWriter{}
	mailer := &rejectingMailer{reject: "bounce@x.com"}

	require.NoError(t, newTestConsumer(reader, dead, mailer).Run(ctx))

	assert.Equal(t, []string{"a@x.com", "b@x.com"}, mailer.sent)
	assert.Equal(t, []int64{1, 2, 3, 4}, reader.committed)

	require.Len(t, dead.written, 2)
	assert.Equal(t, []byte("bounce@x.com"), dead.written[0].Key)
	headers := map[string]string{}
	for _, h := range dead.written[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Contains(t, headers["dead-letter-reason"], "address rejected")
	assert.Equal(t, "2", headers["source-offset"])
	assert.Equal(t, "storefront.notifications", headers["source-topic"])
}

func TestConsumerWithoutDeadLetterTopicStillCommits(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	reader := &queueReader{
		queue:   []kafka.Message{queued(t, 7, "bounce@x.com"), queued(t, 8, "a@x.com")},
		drained: cancel,
	}
	mailer := &rejectingMailer{reject: "bounce@x.com"}

	require.NoError(t, newTestConsumer(reader, nil, mailer).Run(ctx))

	assert.Equal(t, []int64{7, 8}, reader.committed)
	assert.Equal(t, []string{"a@x.com"}, mailer.sent)
}

func TestConsumerKeepsOffsetWhenDeadLetterFails(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	reader := &queueReader{
		queue:   []kafka.Message{queued(t, 5, "bounce@x.com")},
		drained: cancel,
	}
	dead := &topicWriter{err: errors.New("broker down")}

	err := newTestConsumer(reader, dead, &rejectingMailer{reject: "bounce@x.com"}).Run(ctx)
	require.Error(t, err)
	assert.Empty(t, reader.committed)
}

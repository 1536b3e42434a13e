// kafka.go: a reference Target publishing formatted records to a Kafka
// topic via an async producer.
//
// sarama.NewConfig with Producer.Return.Successes/Errors enabled, a
// background goroutine draining producer.Successes()/Errors() into
// counters, and a plain os.Getenv/config-driven topic — simplified here
// since elog targets don't own batching, DLQ, or circuit-breaking (the
// core's own slot table and stats already cover target-level failure
// accounting).
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package kafkatarget

import (
	"net/url"
	"strings"
	"sync"

	"github.com/IBM/sarama"

	"github.com/agilira/elog/filter"
	"github.com/agilira/elog/format"
	"github.com/agilira/elog/internal/elogerr"
	"github.com/agilira/elog/internal/epochgc"
	"github.com/agilira/elog/record"
	"github.com/agilira/elog/stats"
	"github.com/agilira/elog/target"
)

const swapSlots = 8

// Target publishes formatted log lines to a Kafka topic.
type Target struct {
	topic    string
	producer sarama.AsyncProducer

	formatter *target.FormatterSlot
	filterer  *target.FilterSlot
	flusher   *target.FlushPolicySlot

	wg sync.WaitGroup
	st *stats.Stats

	recepts sync.Pool
}

// New builds a Kafka target publishing to topic over brokers.
func New(brokers []string, topic string, formatter *format.Formatter) (*Target, error) {
	if len(brokers) == 0 {
		return nil, elogerr.New(elogerr.CodeInvalidConfig, "elog: kafkatarget: no brokers configured")
	}
	if topic == "" {
		return nil, elogerr.New(elogerr.CodeInvalidConfig, "elog: kafkatarget: no topic configured")
	}

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, elogerr.Wrap(err, elogerr.CodeIoError, "elog: kafkatarget: failed to create producer")
	}

	gc := epochgc.New(swapSlots)
	t := &Target{
		topic:    topic,
		producer: producer,
		st:       stats.New(16),
	}
	t.formatter = target.NewFormatterSlot(gc, formatter)
	t.filterer = target.NewFilterSlot(gc, nil)
	t.flusher = target.NewFlushPolicySlot(gc, filter.FlushImmediate())
	t.recepts.New = func() any { return new(format.TextReceptor) }
	return t, nil
}

func init() {
	target.DefaultSchemes.Register("kafka", func(u *url.URL) (target.Target, error) {
		brokers := []string{u.Host}
		if v := u.Query().Get("brokers"); v != "" {
			brokers = strings.Split(v, ",")
		}
		topic := strings.TrimPrefix(u.Path, "/")
		return New(brokers, topic, nil)
	})
}

// SetFormatter installs f if no formatter is set yet.
func (t *Target) SetFormatter(f *format.Formatter) {
	if t.formatter.Load() == nil {
		t.formatter.Replace(f)
	}
}

// ReplaceFormatter hot-swaps the formatter.
func (t *Target) ReplaceFormatter(f *format.Formatter) { t.formatter.Replace(f) }

// ReplaceFilter hot-swaps the per-target filter.
func (t *Target) ReplaceFilter(f filter.Filter) { t.filterer.Replace(f) }

// ReplaceFlushPolicy hot-swaps the flush policy.
func (t *Target) ReplaceFlushPolicy(p filter.FlushPolicy) { t.flusher.Replace(p) }

// Start begins draining the producer's success/error channels. The
// resulting MsgWritten/MsgFailWrite increments stay on stripe 0: this
// drain loop is the only goroutine touching them, and sarama's delivery
// reports carry no record to stripe by.
func (t *Target) Start() error {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		for t.producer.Successes() != nil || t.producer.Errors() != nil {
			select {
			case msg, ok := <-t.producer.Successes():
				if !ok {
					return
				}
				_ = msg
				t.st.Add(0, stats.MsgWritten, 1)
			case perr, ok := <-t.producer.Errors():
				if !ok {
					return
				}
				_ = perr
				t.st.Add(0, stats.MsgFailWrite, 1)
			}
		}
	}()
	return nil
}

// Stop closes the producer, which drains in-flight messages first.
func (t *Target) Stop() error {
	err := t.producer.Close()
	t.wg.Wait()
	return err
}

// Log implements target.Target: formats the record synchronously, then
// hands the producer an owned byte slice.
func (t *Target) Log(rec *record.LogRecord) {
	if f := t.filterer.Load(); f != nil && !f.Match(rec) {
		t.st.AddByThread(rec.ThreadID, stats.MsgDiscarded, 1)
		return
	}
	f := t.formatter.Load()
	if f == nil {
		t.st.AddByThread(rec.ThreadID, stats.MsgFailWrite, 1)
		return
	}

	recept := t.recepts.Get().(*format.TextReceptor)
	recept.Reset()
	err := f.Format(rec, recept)
	line := recept.Bytes()
	owned := make([]byte, len(line))
	copy(owned, line)
	t.recepts.Put(recept)

	if err != nil {
		t.st.AddByThread(rec.ThreadID, stats.MsgFailWrite, 1)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: t.topic,
		Value: sarama.ByteEncoder(owned),
	}
	if rec.Source != nil {
		msg.Key = sarama.StringEncoder(rec.Source.QualifiedName())
	}

	t.st.AddByThread(rec.ThreadID, stats.MsgSubmitted, 1)
	t.st.AddByThread(rec.ThreadID, stats.BytesSubmitted, int64(len(owned)))
	select {
	case t.producer.Input() <- msg:
	default:
		t.st.AddByThread(rec.ThreadID, stats.MsgDiscarded, 1)
	}
}

// Flush implements target.Target. The async producer has no synchronous
// flush primitive; this is a best-effort no-op, treating Kafka delivery
// as fire-and-forget outside of Stop's drain.
func (t *Target) Flush() error { return nil }

// Stats implements target.Target.
func (t *Target) Stats() *stats.Stats { return t.st }

// IsCaughtUp reports true unconditionally: sarama doesn't expose producer
// queue depth, so this target can't observe backlog directly.
func (t *Target) IsCaughtUp() bool { return true }

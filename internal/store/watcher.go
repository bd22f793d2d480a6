package store

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	"github.com/lk2023060901/sealed-codec-go/pkg/log"
	"github.com/lk2023060901/sealed-codec-go/pkg/metrics"
)

// EventType 为记录变更事件的类型。
type EventType int

const (
	// PutEvent 表示记录新增或更新。
	PutEvent EventType = iota
	// DeleteEvent 表示记录删除。
	DeleteEvent
)

// Event 为一条记录变更事件。
//
// Put 事件的 Value 为经过完整解码门禁还原的领域值；
// 无法通过门禁的记录不会产生事件，仅留下日志与指标。
type Event struct {
	Type  EventType
	Key   string
	Value any
}

// Watcher 监听某前缀下记录的变更。
type Watcher struct {
	eventCh   chan *Event
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// EventChannel 返回事件通道；Watcher 停止后通道被关闭。
func (w *Watcher) EventChannel() <-chan *Event {
	return w.eventCh
}

// Stop 停止监听并等待后台协程退出。
func (w *Watcher) Stop() {
	w.cancel()
	w.wg.Wait()
}

func (w *Watcher) closeEventCh() {
	w.closeOnce.Do(func() {
		close(w.eventCh)
	})
}

// Watch 从 revision 开始监听前缀下的记录变更。
//
// revision 为 0 时从当前状态开始。watch 通道断开后按指数退避重建，
// 并从最后一次已处理的 revision 之后继续，避免遗漏事件。
func (s *RecordStore) Watch(ctx context.Context, prefix string, revision int64) *Watcher {
	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		eventCh: make(chan *Event, 100),
		cancel:  cancel,
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer w.closeEventCh()
		s.watchLoop(ctx, w, s.fullKey(prefix), revision)
	}()

	return w
}

func (s *RecordStore) watchLoop(ctx context.Context, w *Watcher, prefix string, revision int64) {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 0
	bo.Reset()

	for {
		opts := []clientv3.OpOption{clientv3.WithPrefix(), clientv3.WithPrevKV()}
		if revision > 0 {
			opts = append(opts, clientv3.WithRev(revision+1))
		}
		rch := s.cli.Watch(ctx, prefix, opts...)

		healthy := s.consumeWatch(ctx, w, rch, &revision)
		if ctx.Err() != nil {
			return
		}
		if healthy {
			bo.Reset()
		}

		// 通道断开，退避后重建。
		metrics.StoreWatchReconnects.Inc()
		interval := bo.NextBackOff()
		log.Warn("record watch channel broken, re-establishing",
			zap.String("prefix", prefix),
			zap.Int64("revision", revision),
			zap.Duration("backoff", interval))

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// consumeWatch 消费一个 watch 通道直至其关闭或出错。
// 返回值表示该通道是否曾正常投递过事件。
func (s *RecordStore) consumeWatch(ctx context.Context, w *Watcher, rch clientv3.WatchChan, revision *int64) bool {
	delivered := false
	for {
		select {
		case <-ctx.Done():
			return delivered
		case wresp, ok := <-rch:
			if !ok {
				return delivered
			}
			if err := wresp.Err(); err != nil {
				log.Warn("record watch response error", zap.Error(err))
				return delivered
			}
			if wresp.Header.Revision > *revision {
				*revision = wresp.Header.Revision
			}
			for _, ev := range wresp.Events {
				if event := s.translateEvent(ev); event != nil {
					delivered = true
					select {
					case <-ctx.Done():
						return delivered
					case w.eventCh <- event:
					}
				}
			}
		}
	}
}

func (s *RecordStore) translateEvent(ev *clientv3.Event) *Event {
	key := string(ev.Kv.Key)
	switch ev.Type {
	case mvccpb.PUT:
		value, err := s.decode(ev.Kv.Value)
		if err != nil {
			metrics.StoreOpCounter.WithLabelValues("watch_decode", metrics.FailLabel).Inc()
			log.Warn("failed to decode watched record",
				zap.String("key", key), zap.Error(err))
			return nil
		}
		return &Event{Type: PutEvent, Key: key, Value: value}
	case mvccpb.DELETE:
		return &Event{Type: DeleteEvent, Key: key}
	default:
		return nil
	}
}

// Package store 提供基于 etcd 的封印记录存储。
//
// 记录以编解码管线产出的信封帧为存储形态；每次读取都经过
// 解码侧的标签门禁，存进去的字节同样无法绕过校验构造路径。
package store

import (
	"bytes"
	"context"
	"path"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lk2023060901/sealed-codec-go/internal/codec"
	"github.com/lk2023060901/sealed-codec-go/internal/sealed"
	"github.com/lk2023060901/sealed-codec-go/pkg/log"
	"github.com/lk2023060901/sealed-codec-go/pkg/metrics"
	"github.com/lk2023060901/sealed-codec-go/pkg/util/conc"
	"github.com/lk2023060901/sealed-codec-go/pkg/util/hardware"
	"github.com/lk2023060901/sealed-codec-go/pkg/util/retry"
	"github.com/lk2023060901/sealed-codec-go/pkg/util/serr"
)

const (
	// defaultRetryTimes 为单次存储操作的默认重试次数。
	defaultRetryTimes = 3

	// defaultRetrySleep 为重试的初始退避间隔。
	defaultRetrySleep = 200 * time.Millisecond
)

// RecordStore 将封印领域值保存为信封帧，并在读取时完整重放解码门禁。
type RecordStore struct {
	cli      *clientv3.Client
	codec    codec.Codec
	rootPath string

	encPool *conc.Pool[[]byte]
}

// New 创建一个 RecordStore。
//
// cli 的生命周期由调用方管理；rootPath 为所有记录键的公共前缀。
func New(cli *clientv3.Client, c codec.Codec, rootPath string) *RecordStore {
	return &RecordStore{
		cli:      cli,
		codec:    c,
		rootPath: rootPath,
		encPool:  conc.NewPool[[]byte](hardware.GetCPUNum()),
	}
}

// Close 释放内部资源，不关闭 etcd 客户端。
func (s *RecordStore) Close() {
	s.encPool.Release()
}

func (s *RecordStore) fullKey(key string) string {
	return path.Join(s.rootPath, key)
}

func (s *RecordStore) encode(v sealed.Sealable) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.codec.Encode(&buf, nil, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *RecordStore) decode(data []byte) (any, error) {
	_, value, err := s.codec.Decode(bytes.NewReader(data))
	return value, err
}

func (s *RecordStore) observe(op string, start time.Time, err error) {
	status := metrics.SuccessLabel
	if err != nil {
		status = metrics.FailLabel
	}
	metrics.StoreOpCounter.WithLabelValues(op, status).Inc()
	metrics.StoreOpLatency.WithLabelValues(op).Observe(float64(time.Since(start).Milliseconds()))
}

// Save 将领域值编码为信封帧并写入 etcd。
//
// 编码失败不重试；写入失败按瞬时错误重试。
func (s *RecordStore) Save(ctx context.Context, key string, v sealed.Sealable) (err error) {
	start := time.Now()
	defer func() { s.observe("save", start, err) }()

	data, err := s.encode(v)
	if err != nil {
		return err
	}

	saveFn := func() error {
		if _, putErr := s.cli.Put(ctx, s.fullKey(key), string(data)); putErr != nil {
			return serr.WrapErrStoreUnavailable(putErr.Error(), "save "+key)
		}
		return nil
	}
	err = retry.Do(ctx, saveFn, retry.Attempts(defaultRetryTimes), retry.Sleep(defaultRetrySleep))
	return err
}

// SaveAll 批量保存多条记录。
//
// 编码在协程池上并行完成，写入合并为一个事务，要么全部落盘要么全部失败。
func (s *RecordStore) SaveAll(ctx context.Context, records map[string]sealed.Sealable) (err error) {
	start := time.Now()
	defer func() { s.observe("save_all", start, err) }()

	if len(records) == 0 {
		return nil
	}

	keys := make([]string, 0, len(records))
	futures := make([]*conc.Future[[]byte], 0, len(records))
	for key, v := range records {
		v := v
		keys = append(keys, key)
		futures = append(futures, s.encPool.Submit(func() ([]byte, error) {
			return s.encode(v)
		}))
	}

	ops := make([]clientv3.Op, 0, len(records))
	for i, future := range futures {
		data, futureErr := future.Await()
		if futureErr != nil {
			err = futureErr
			return err
		}
		ops = append(ops, clientv3.OpPut(s.fullKey(keys[i]), string(data)))
	}

	saveFn := func() error {
		if _, txnErr := s.cli.Txn(ctx).Then(ops...).Commit(); txnErr != nil {
			return serr.WrapErrStoreUnavailable(txnErr.Error(), "save_all")
		}
		return nil
	}
	err = retry.Do(ctx, saveFn, retry.Attempts(defaultRetryTimes), retry.Sleep(defaultRetrySleep))
	return err
}

// Load 读取并还原一条记录。
//
// 记录不存在返回 ErrRecordNotFound；信封携带封印标签时
// 与解码流一样返回 ErrStreamDirectDecode。
func (s *RecordStore) Load(ctx context.Context, key string) (value any, err error) {
	start := time.Now()
	defer func() { s.observe("load", start, err) }()

	var resp *clientv3.GetResponse
	loadFn := func() error {
		var getErr error
		resp, getErr = s.cli.Get(ctx, s.fullKey(key))
		if getErr != nil {
			return serr.WrapErrStoreUnavailable(getErr.Error(), "load "+key)
		}
		return nil
	}
	if err = retry.Do(ctx, loadFn, retry.Attempts(defaultRetryTimes), retry.Sleep(defaultRetrySleep)); err != nil {
		return nil, err
	}

	if len(resp.Kvs) == 0 {
		err = serr.WrapErrRecordNotFound(key)
		return nil, err
	}

	value, err = s.decode(resp.Kvs[0].Value)
	return value, err
}

// LoadAll 读取前缀下的全部记录并并行还原。
//
// 返回的 revision 可传给 Watch 以避免遗漏事件。
// 任意一条记录被门禁拒绝即整体失败。
func (s *RecordStore) LoadAll(ctx context.Context, prefix string) (values map[string]any, revision int64, err error) {
	start := time.Now()
	defer func() { s.observe("load_all", start, err) }()

	var resp *clientv3.GetResponse
	loadFn := func() error {
		var getErr error
		resp, getErr = s.cli.Get(ctx, s.fullKey(prefix), clientv3.WithPrefix(),
			clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend))
		if getErr != nil {
			return serr.WrapErrStoreUnavailable(getErr.Error(), "load_all "+prefix)
		}
		return nil
	}
	if err = retry.Do(ctx, loadFn, retry.Attempts(defaultRetryTimes), retry.Sleep(defaultRetrySleep)); err != nil {
		return nil, 0, err
	}

	decoded := make([]any, len(resp.Kvs))
	group, _ := errgroup.WithContext(ctx)
	group.SetLimit(hardware.GetCPUNum())
	for i, kv := range resp.Kvs {
		i, kv := i, kv
		group.Go(func() error {
			v, decodeErr := s.decode(kv.Value)
			if decodeErr != nil {
				log.Warn("failed to decode stored record",
					zap.String("key", string(kv.Key)), zap.Error(decodeErr))
				return decodeErr
			}
			decoded[i] = v
			return nil
		})
	}
	if err = group.Wait(); err != nil {
		return nil, 0, err
	}

	values = make(map[string]any, len(resp.Kvs))
	for i, kv := range resp.Kvs {
		values[string(kv.Key)] = decoded[i]
	}
	return values, resp.Header.Revision, nil
}

// Remove 删除一条记录。
func (s *RecordStore) Remove(ctx context.Context, key string) (err error) {
	start := time.Now()
	defer func() { s.observe("remove", start, err) }()

	removeFn := func() error {
		if _, delErr := s.cli.Delete(ctx, s.fullKey(key)); delErr != nil {
			return serr.WrapErrStoreUnavailable(delErr.Error(), "remove "+key)
		}
		return nil
	}
	err = retry.Do(ctx, removeFn, retry.Attempts(defaultRetryTimes), retry.Sleep(defaultRetrySleep))
	return err
}

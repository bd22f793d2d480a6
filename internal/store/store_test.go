package store

import (
	"bytes"
	"context"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/lk2023060901/sealed-codec-go/internal/codec"
	"github.com/lk2023060901/sealed-codec-go/internal/codec/framer"
	"github.com/lk2023060901/sealed-codec-go/internal/codec/serializer"
	"github.com/lk2023060901/sealed-codec-go/internal/domain/quantity"
	"github.com/lk2023060901/sealed-codec-go/internal/sealed"
	"github.com/lk2023060901/sealed-codec-go/pkg/util/etcd"
	"github.com/lk2023060901/sealed-codec-go/pkg/util/serr"
)

type StoreSuite struct {
	suite.Suite

	cli   *clientv3.Client
	store *RecordStore
}

func (s *StoreSuite) SetupSuite() {
	dir := s.T().TempDir()
	err := etcd.InitEtcdServer(true, "", path.Join(dir, "data"), path.Join(dir, "etcd.log"), "error")
	s.Require().NoError(err)

	s.cli, err = etcd.GetEmbedEtcdClient()
	s.Require().NoError(err)

	c, err := codec.New(codec.Options{
		Framer:     framer.NewLengthPrefixedFramer(0),
		Serializer: serializer.JSONSerializer{},
	})
	s.Require().NoError(err)

	s.store = New(s.cli, c, "sealed-store-test")
}

func (s *StoreSuite) TearDownSuite() {
	if s.store != nil {
		s.store.Close()
	}
	if s.cli != nil {
		s.cli.Close()
	}
	etcd.StopEtcdServer()
}

func (s *StoreSuite) mustQuantity(amount int64) *quantity.Quantity {
	q, err := quantity.New(amount)
	s.Require().NoError(err)
	return q
}

func (s *StoreSuite) TestSaveLoad() {
	ctx := context.Background()

	s.NoError(s.store.Save(ctx, "records/a", s.mustQuantity(42)))

	value, err := s.store.Load(ctx, "records/a")
	s.NoError(err)
	s.EqualValues(42, value.(*quantity.Quantity).Amount())
}

func (s *StoreSuite) TestLoadNotFound() {
	_, err := s.store.Load(context.Background(), "records/missing")
	s.ErrorIs(err, serr.ErrRecordNotFound)
}

func (s *StoreSuite) TestSaveAllLoadAll() {
	ctx := context.Background()

	records := map[string]sealed.Sealable{
		"batch/a": s.mustQuantity(1),
		"batch/b": s.mustQuantity(2),
		"batch/c": s.mustQuantity(3),
	}
	s.NoError(s.store.SaveAll(ctx, records))

	values, revision, err := s.store.LoadAll(ctx, "batch")
	s.NoError(err)
	s.Positive(revision)
	s.Len(values, 3)

	total := int64(0)
	for _, v := range values {
		total += v.(*quantity.Quantity).Amount()
	}
	s.EqualValues(6, total)
}

func (s *StoreSuite) TestLoadRejectsSealedTag() {
	ctx := context.Background()

	// 手工向存储写入一帧封印标签的信封，模拟被篡改的记录。
	var buf bytes.Buffer
	f := framer.NewLengthPrefixedFramer(0)
	s.Require().NoError(f.WriteFrame(&buf, &framer.Envelope{
		Header: &framer.Header{
			Tag:        quantity.SealedTag,
			Serializer: serializer.NameJSON,
			Version:    quantity.FormatVersion.String(),
			Seq:        1,
			Timestamp:  1,
		},
		Payload: []byte(`{"amount":42}`),
	}))
	_, err := s.cli.Put(ctx, s.store.fullKey("tampered/sealed"), buf.String())
	s.Require().NoError(err)

	_, err = s.store.Load(ctx, "tampered/sealed")
	s.ErrorIs(err, serr.ErrStreamDirectDecode)
}

func (s *StoreSuite) TestLoadRejectsNegativeAmount() {
	ctx := context.Background()

	var buf bytes.Buffer
	f := framer.NewLengthPrefixedFramer(0)
	s.Require().NoError(f.WriteFrame(&buf, &framer.Envelope{
		Header: &framer.Header{
			Tag:        quantity.ProxyTag,
			Serializer: serializer.NameJSON,
			Version:    quantity.FormatVersion.String(),
			Seq:        1,
			Timestamp:  1,
		},
		Payload: []byte(`{"amount":-5}`),
	}))
	_, err := s.cli.Put(ctx, s.store.fullKey("tampered/negative"), buf.String())
	s.Require().NoError(err)

	_, err = s.store.Load(ctx, "tampered/negative")
	s.ErrorIs(err, serr.ErrInvariantViolated)
}

func (s *StoreSuite) TestRemove() {
	ctx := context.Background()

	s.NoError(s.store.Save(ctx, "records/gone", s.mustQuantity(1)))
	s.NoError(s.store.Remove(ctx, "records/gone"))

	_, err := s.store.Load(ctx, "records/gone")
	s.ErrorIs(err, serr.ErrRecordNotFound)
}

func (s *StoreSuite) TestWatch() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, revision, err := s.store.LoadAll(ctx, "watched")
	s.Require().NoError(err)

	w := s.store.Watch(ctx, "watched", revision)
	defer w.Stop()

	s.NoError(s.store.Save(ctx, "watched/a", s.mustQuantity(11)))
	s.NoError(s.store.Remove(ctx, "watched/a"))

	var events []*Event
	timeout := time.After(10 * time.Second)
	for len(events) < 2 {
		select {
		case ev, ok := <-w.EventChannel():
			s.Require().True(ok)
			events = append(events, ev)
		case <-timeout:
			s.FailNow("timed out waiting for watch events")
		}
	}

	s.Equal(PutEvent, events[0].Type)
	s.EqualValues(11, events[0].Value.(*quantity.Quantity).Amount())
	s.Equal(DeleteEvent, events[1].Type)
	s.Equal(s.store.fullKey("watched/a"), events[1].Key)
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

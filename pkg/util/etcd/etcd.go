package etcd

import (
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	"github.com/lk2023060901/sealed-codec-go/pkg/log"
)

const (
	dialTimeout      = 5 * time.Second
	keepAliveTime    = 10 * time.Second
	keepAliveTimeout = 3 * time.Second
)

// GetRemoteEtcdClient 创建连接远端 etcd 集群的 v3 客户端。
// 连接失败由调用方通过后续请求的错误感知。
func GetRemoteEtcdClient(endpoints []string) (*clientv3.Client, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: dialTimeout,
		DialOptions: []grpc.DialOption{
			grpc.WithKeepaliveParams(keepalive.ClientParameters{
				Time:                keepAliveTime,
				Timeout:             keepAliveTimeout,
				PermitWithoutStream: true,
			}),
		},
	})
	if err != nil {
		log.Error("failed to create etcd client", zap.Strings("endpoints", endpoints), zap.Error(err))
		return nil, err
	}
	return cli, nil
}

// GetEtcdClient 根据配置返回嵌入式或远端 etcd 客户端。
func GetEtcdClient(useEmbed bool, endpoints []string) (*clientv3.Client, error) {
	if useEmbed {
		return GetEmbedEtcdClient()
	}
	return GetRemoteEtcdClient(endpoints)
}

package grpc

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func startHealthServer(t *testing.T) grpc.DialOption {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, health.NewServer())
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)
	return grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
}

func TestPoolReusesConnection(t *testing.T) {
	dialer := startHealthServer(t)
	p := NewPool(WithDialOptions(dialer))
	t.Cleanup(func() { _ = p.Close() })

	var wg sync.WaitGroup
	conns := make([]*grpc.ClientConn, 16)
	for i := range conns {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn, err := p.GetConnection("passthrough:///bufnet")
			assert.NoError(t, err)
			conns[i] = conn
		}(i)
	}
	wg.Wait()
	for _, c := range conns[1:] {
		assert.Same(t, conns[0], c)
	}
}

func TestPoolReplacesClosedConnection(t *testing.T) {
	dialer := startHealthServer(t)
	p := NewPool(WithDialOptions(dialer))

	first, err := p.GetConnection("passthrough:///bufnet")
	require.NoError(t, err)
	require.NoError(t, p.Close())

	second, err := p.GetConnection("passthrough:///bufnet")
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	assert.NotSame(t, first, second)
}

func TestPoolChainsInterceptors(t *testing.T) {
	dialer := startHealthServer(t)
	var order []string
	var calls atomic.Int32
	mk := func(name string) grpc.UnaryClientInterceptor {
		return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			order = append(order, name)
			calls.Add(1)
			return invoker(ctx, method, req, reply, cc, opts...)
		}
	}
	p := NewPool(WithDialOptions(dialer), WithInterceptor(mk("outer")), WithInterceptor(mk("inner")))
	t.Cleanup(func() { _ = p.Close() })

	conn, err := p.GetConnection("passthrough:///bufnet")
	require.NoError(t, err)
	res, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, res.Status)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []string{"outer", "inner"}, order)
}

package rpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/KevinKickass/OpenRegMap/internal/regmap"
)

func dial(t *testing.T) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv, _ := NewServer(NewLayoutService(regmap.DefaultBank(), regmap.BestFit, zap.NewNop()))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestMapFields(t *testing.T) {
	client := NewLayoutServiceClient(dial(t))

	req, err := structpb.NewStruct(map[string]any{
		"strategy": "first_fit",
		"fields": []any{
			map[string]any{"name": "enable", "datatype": "boolean"},
			map[string]any{"name": "level", "datatype": "voltage_output_05v_s16"},
		},
	})
	require.NoError(t, err)

	resp, err := client.MapFields(context.Background(), req)
	require.NoError(t, err)

	doc := resp.AsMap()
	mappings := doc["mappings"].([]any)
	require.Len(t, mappings, 2)
	level := mappings[1].(map[string]any)
	assert.Equal(t, "level", level["name"])
	assert.Equal(t, float64(6), level["register"])
	assert.Equal(t, float64(30), level["msb"])
	assert.Equal(t, float64(15), level["lsb"])
	assert.Equal(t, float64(17), doc["summary"].(map[string]any)["bits_used"])
}

func TestMapFieldsErrors(t *testing.T) {
	client := NewLayoutServiceClient(dial(t))

	dup, err := structpb.NewStruct(map[string]any{
		"fields": []any{
			map[string]any{"name": "a", "datatype": "boolean"},
			map[string]any{"name": "a", "datatype": "boolean"},
		},
	})
	require.NoError(t, err)
	_, err = client.MapFields(context.Background(), dup)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "duplicate_field_name")

	unknown, err := structpb.NewStruct(map[string]any{
		"fields": []any{map[string]any{"name": "a", "datatype": "no_such_type"}},
	})
	require.NoError(t, err)
	_, err = client.MapFields(context.Background(), unknown)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	strategy, err := structpb.NewStruct(map[string]any{
		"strategy": "random",
		"fields":   []any{map[string]any{"name": "a", "datatype": "boolean"}},
	})
	require.NoError(t, err)
	_, err = client.MapFields(context.Background(), strategy)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "unknown_strategy")

	both, err := structpb.NewStruct(map[string]any{
		"strategy": "random",
		"fields": []any{
			map[string]any{"name": "a", "datatype": "boolean"},
			map[string]any{"name": "a", "datatype": "boolean"},
		},
	})
	require.NoError(t, err)
	_, err = client.MapFields(context.Background(), both)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "duplicate_field_name")
}

func TestListDataTypes(t *testing.T) {
	client := NewLayoutServiceClient(dial(t))

	resp, err := client.ListDataTypes(context.Background(), &emptypb.Empty{})
	require.NoError(t, err)
	assert.Equal(t, float64(23), resp.AsMap()["count"])
}

func TestHealth(t *testing.T) {
	client := healthpb.NewHealthClient(dial(t))

	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

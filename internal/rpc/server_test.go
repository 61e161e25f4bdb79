package rpc_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nyashahama/realyou-backend/internal/content"
	"github.com/nyashahama/realyou-backend/internal/rpc"
	"github.com/nyashahama/realyou-backend/internal/scoring"
)

func dial(t *testing.T) *grpc.ClientConn {
	t.Helper()

	c, err := content.Load()
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	srv := rpc.NewServer(c.Engine(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestScore(t *testing.T) {
	conn := dial(t)

	in := mustStruct(t, map[string]any{
		"answers": []any{
			map[string]any{"question_id": "ei_01", "value": 5},
			map[string]any{"question_id": "sn_01", "value": 5},
			map[string]any{"question_id": "tf_01", "value": 5},
			map[string]any{"question_id": "jp_01", "value": 1},
		},
	})
	out := new(structpb.Struct)
	require.NoError(t, conn.Invoke(context.Background(), rpc.ScoreMethod, in, out))

	got := out.AsMap()
	assert.Equal(t, "ENTP", got["type_code"])
	vec, ok := got["trait_vector"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), vec["EI"])
	assert.Equal(t, float64(2), vec["SN"])
	profile, ok := got["profile"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, profile["label"])
}

func TestScore_EmptyAnswersIsInvalidArgument(t *testing.T) {
	conn := dial(t)

	err := conn.Invoke(context.Background(), rpc.ScoreMethod, mustStruct(t, map[string]any{}), new(structpb.Struct))
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestCompatibility(t *testing.T) {
	conn := dial(t)

	out := new(structpb.Struct)
	err := conn.Invoke(context.Background(), rpc.CompatibilityMethod,
		mustStruct(t, map[string]any{"a": "entp", "b": "INFJ"}), out)
	require.NoError(t, err)

	want := scoring.Compare("ENTP", "INFJ")
	got := out.AsMap()
	assert.Equal(t, "ENTP", got["you"])
	assert.Equal(t, "INFJ", got["them"])
	assert.Equal(t, float64(want.Score), got["score"])
	assert.Equal(t, want.Label, got["label"])
}

func TestCompatibility_InvalidType(t *testing.T) {
	conn := dial(t)

	err := conn.Invoke(context.Background(), rpc.CompatibilityMethod,
		mustStruct(t, map[string]any{"a": "ENTP", "b": "ABCD"}), new(structpb.Struct))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestHealth(t *testing.T) {
	conn := dial(t)

	resp, err := grpc_health_v1.NewHealthClient(conn).Check(context.Background(),
		&grpc_health_v1.HealthCheckRequest{Service: rpc.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.GetStatus())
}

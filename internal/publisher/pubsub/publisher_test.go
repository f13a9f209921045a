package pubsub

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/JakeFAU/survey-trends/internal/publisher"
)

func fakeServerOptions(t *testing.T) (*pstest.Server, []option.ClientOption) {
	t.Helper()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })
	return srv, []option.ClientOption{
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	}
}

func TestPublishSendsNoticeWithAttributes(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	ctx := context.Background()
	srv, opts := fakeServerOptions(t)

	client, err := pubsub.NewClient(ctx, "survey-project", opts...)
	require.NoError(t, err)
	defer client.Close()
	topic, err := client.CreateTopic(ctx, "runs-done")
	require.NoError(t, err)
	defer topic.Stop()

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01},
		SpanID:     trace.SpanID{0x02},
		TraceFlags: trace.FlagsSampled,
	})
	ctx = trace.ContextWithSpanContext(ctx, sc)

	notice := publisher.Notice{
		RunID:     uuid.New(),
		Object:    "final.json",
		Records:   3,
		Aggregate: json.RawMessage(`{"2016":{"react":1,"total":1}}`),
	}
	id, err := New(topic).Publish(ctx, notice)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, notice.RunID.String(), msgs[0].Attributes["run_id"])
	require.Equal(t, "final.json", msgs[0].Attributes["object"])
	require.Contains(t, msgs[0].Attributes, "traceparent")

	var got publisher.Notice
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	require.Equal(t, notice.RunID, got.RunID)
	require.JSONEq(t, string(notice.Aggregate), string(got.Aggregate))
}

func TestDialRequiresExistingTopic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, opts := fakeServerOptions(t)

	_, err := Dial(ctx, "survey-project", "missing", opts...)
	require.Error(t, err)
}

func TestDialAndClose(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srv, opts := fakeServerOptions(t)

	admin, err := pubsub.NewClient(ctx, "survey-project", opts...)
	require.NoError(t, err)
	defer admin.Close()
	_, err = admin.CreateTopic(ctx, "runs-done")
	require.NoError(t, err)

	pub, err := Dial(ctx, "survey-project", "runs-done", opts...)
	require.NoError(t, err)
	_, err = pub.Publish(ctx, publisher.Notice{RunID: uuid.New()})
	require.NoError(t, err)
	require.NoError(t, pub.Close())
	require.Len(t, srv.Messages(), 1)
}

func TestPublishUnconfigured(t *testing.T) {
	t.Parallel()

	var pub *Publisher
	_, err := pub.Publish(context.Background(), publisher.Notice{})
	require.Error(t, err)
	require.NoError(t, pub.Close())
}

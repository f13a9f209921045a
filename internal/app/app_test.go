package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/JakeFAU/survey-trends/internal/config"
	"github.com/JakeFAU/survey-trends/internal/pipeline"
	"github.com/JakeFAU/survey-trends/internal/progress"
	memorypublisher "github.com/JakeFAU/survey-trends/internal/publisher/memory"
	"github.com/JakeFAU/survey-trends/internal/storage"
	memorystorage "github.com/JakeFAU/survey-trends/internal/storage/memory"
	"github.com/JakeFAU/survey-trends/internal/store"
	"github.com/JakeFAU/survey-trends/internal/survey"
)

const surveys2016 = `{"year":2016,"tools":{"react":{"experience":"would_use"},"vuejs":{"experience":"interested"}}}
{"year":2016,"tools":{"react":{"experience":"never_heard"}}}
`

const surveys2017 = `{"year":2017,"tools":{"react":{"experience":"interested"}}}
{"year":2015,"tools":{"react":{"experience":"would_use"}}}
`

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Input.Dir = "/surveys"
	cfg.Output.Backend = "memory"
	cfg.Output.Path = "final.json"
	cfg.Survey.Years = []string{"2016", "2017"}
	cfg.Survey.Technologies = []survey.Technology{
		{Key: "react", Title: "React"},
		{Key: "vuejs", Title: "Vue.js"},
	}
	cfg.Progress.MaxBatchWaitMs = 10
	return cfg
}

func testFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/surveys", 0o750))
	require.NoError(t, afero.WriteFile(fs, "/surveys/2016.json", []byte(surveys2016), 0o600))
	require.NoError(t, afero.WriteFile(fs, "/surveys/2017.json", []byte(surveys2017), 0o600))
	return fs
}

func TestBuildAndRunWritesDocument(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a, err := Build(ctx, testConfig(t), WithLogger(zaptest.NewLogger(t)), WithFs(testFs(t)))
	require.NoError(t, err)
	defer func() { require.NoError(t, a.Close(ctx)) }()

	var percents []int
	unsubscribe := a.Runner().OnProgress(func(p progress.Progress) { percents = append(percents, p.Percent()) })
	defer unsubscribe()

	res, err := a.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(4), res.Records)
	require.Equal(t, int64(1), res.Unclassified)
	require.NotEmpty(t, percents)
	require.Equal(t, 100, percents[len(percents)-1])

	mem, ok := a.Sink().(*memorystorage.BlobStore)
	require.True(t, ok)
	doc, ok := mem.Get("final.json")
	require.True(t, ok)
	require.JSONEq(t, `{"2016":{"react":1,"vuejs":1,"total":2},"2017":{"react":1,"vuejs":0,"total":1}}`, string(doc))
}

func TestRunFailureLeavesSinkUntouched(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fs := testFs(t)
	require.NoError(t, afero.WriteFile(fs, "/surveys/2018.json", []byte("{not json}\n"), 0o600))

	sink := new(storage.MockProvider)
	a, err := Build(ctx, testConfig(t), WithLogger(zaptest.NewLogger(t)), WithFs(fs), WithSink(sink))
	require.NoError(t, err)
	defer func() { require.NoError(t, a.Close(ctx)) }()

	_, err = a.Run(ctx)
	require.Error(t, err)
	require.True(t, pipeline.IsFatal(err))
	sink.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunServesAPIWhileRunning(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := testConfig(t)
	cfg.Server.Enabled = true
	cfg.Server.Linger = true
	a, err := Build(ctx, cfg, WithLogger(zaptest.NewLogger(t)), WithFs(testFs(t)))
	require.NoError(t, err)
	defer func() { require.NoError(t, a.Close(context.Background())) }()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := fmt.Sprintf("http://%s", ln.Addr().String())

	type outcome struct {
		res pipeline.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := a.runWithServer(ctx, ln)
		done <- outcome{res, err}
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/v1/aggregate")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return false
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return false
		}
		var doc map[string]map[string]int
		return json.Unmarshal(body, &doc) == nil && doc["2016"]["total"] == 2
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Get(base + "/healthz")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case out := <-done:
		require.NoError(t, out.err)
		require.Equal(t, int64(4), out.res.Records)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestBuildRejectsUnwritableLocalOutput(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Output.Backend = "local"
	cfg.Output.Path = "/dev/null/final.json"

	_, err := Build(context.Background(), cfg, WithLogger(zaptest.NewLogger(t)), WithFs(testFs(t)))
	require.Error(t, err)
}

type fakeRepo struct {
	saved []store.Run
	err   error
}

func (f *fakeRepo) SaveRun(_ context.Context, run store.Run) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, run)
	return nil
}

func (f *fakeRepo) GetRun(context.Context, uuid.UUID) (store.Run, error) {
	return store.Run{}, store.ErrNotFound
}

func (f *fakeRepo) ListRuns(context.Context, int, int) ([]store.Run, error) {
	return nil, nil
}

func sampleResult() pipeline.Result {
	started := time.Unix(1700000000, 0).UTC()
	return pipeline.Result{
		RunID:        uuid.New(),
		StartedAt:    started,
		FinishedAt:   started.Add(time.Second),
		Files:        2,
		Bytes:        64,
		Records:      4,
		Unclassified: 1,
		Document:     []byte(`{"2016":{"react":1,"total":1}}`),
		Object:       "final.json",
	}
}

func TestHistoryReporter(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	res := sampleResult()
	require.NoError(t, HistoryReporter{Repo: repo}.Report(context.Background(), res))
	require.Len(t, repo.saved, 1)
	require.Equal(t, res.RunID, repo.saved[0].ID)
	require.Equal(t, int64(1), repo.saved[0].Unclassified)
	require.JSONEq(t, string(res.Document), string(repo.saved[0].Document))

	boom := errors.New("db down")
	err := HistoryReporter{Repo: &fakeRepo{err: boom}}.Report(context.Background(), res)
	require.ErrorIs(t, err, boom)
}

func TestNoticeReporter(t *testing.T) {
	t.Parallel()

	pub := memorypublisher.New()
	res := sampleResult()
	rep := NoticeReporter{Publisher: pub, Logger: zaptest.NewLogger(t)}
	require.NoError(t, rep.Report(context.Background(), res))

	notices := pub.Notices()
	require.Len(t, notices, 1)
	require.Equal(t, res.RunID, notices[0].RunID)
	require.Equal(t, "final.json", notices[0].Object)
	require.JSONEq(t, string(res.Document), string(notices[0].Aggregate))

	boom := errors.New("broker down")
	pub.FailWith(boom)
	require.ErrorIs(t, rep.Report(context.Background(), res), boom)
}

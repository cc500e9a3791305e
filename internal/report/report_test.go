package report

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"careermatch/internal/config"
	"careermatch/internal/engine"
	"careermatch/internal/errors"
	"careermatch/internal/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCareers() []types.Career {
	return []types.Career{
		{
			Title:       "Backend",
			Technical:   types.Requirements{{Skill: "Go", Level: 4}, {Skill: "SQL", Level: 2}},
			Behavioral:  types.Requirements{{Skill: "Communication", Level: 2}},
			Description: "APIs and services",
		},
		{
			Title:       "Data",
			Technical:   types.Requirements{{Skill: "Statistics", Level: 5}},
			Description: "Models",
		},
	}
}

func sampleProfile() types.Profile {
	return types.Profile{
		Name:       "Ana Souza",
		Technical:  map[string]int{"Go": 2, "SQL": 2},
		Behavioral: map[string]int{"Communication": 2},
	}
}

func fixClock(t *testing.T) time.Time {
	t.Helper()
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	prevNow, prevID := now, newID
	now = func() time.Time { return fixed }
	newID = func() string { return "report-1" }
	t.Cleanup(func() { now, newID = prevNow, prevID })
	return fixed
}

func TestBuild(t *testing.T) {
	fixed := fixClock(t)
	profile := sampleProfile()
	ranking := engine.NewRanker(sampleCareers()).Recommend(profile, 2)

	report := Build(profile, ranking, 5)

	assert.Equal(t, "report-1", report.ID)
	assert.Equal(t, fixed, report.GeneratedAt)
	assert.Equal(t, "Ana Souza", report.Profile.Name)
	require.Len(t, report.Recommendations, 2)

	first := report.Recommendations[0]
	assert.Equal(t, "Backend", first.Career)
	assert.InDelta(t, 0.7*0.75+0.3*1.0, first.Score, 1e-12)
	assert.InDelta(t, 82.5, first.Percent, 0.05)
	assert.Equal(t, "APIs and services", first.Description)
	require.Len(t, first.Gaps, 1)
	assert.Equal(t, "Go", first.Gaps[0].Skill)
	assert.InDelta(t, 0.5, first.Gaps[0].Gap, 1e-12)

	second := report.Recommendations[1]
	assert.Equal(t, "Data", second.Career)
	assert.Equal(t, 30.0, second.Percent)
}

func TestBuildWithoutGaps(t *testing.T) {
	fixClock(t)
	profile := sampleProfile()
	ranking := engine.NewRanker(sampleCareers()).Recommend(profile, 1)

	report := Build(profile, ranking, 0)

	require.Len(t, report.Recommendations, 1)
	assert.Empty(t, report.Recommendations[0].Gaps)
}

func TestBuildGapReport(t *testing.T) {
	gaps := BuildGapReport(sampleProfile(), sampleCareers()[1], 3)

	assert.Equal(t, "Ana Souza", gaps.Profile)
	assert.Equal(t, "Data", gaps.Career)
	assert.Equal(t, 30.0, gaps.Percent)
	require.Len(t, gaps.Gaps, 1)
	assert.Equal(t, "Statistics", gaps.Gaps[0].Skill)
	assert.Equal(t, 1.0, gaps.Gaps[0].Gap)
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name    string
		profile string
		ext     string
		want    string
	}{
		{name: "spaces", profile: "Ana Maria Souza", ext: "json", want: "report_Ana_Maria_Souza.json"},
		{name: "dotted extension", profile: "Bob", ext: ".md", want: "report_Bob.md"},
		{name: "path separators", profile: "a/b", ext: "txt", want: "report_a_b.txt"},
		{name: "trimmed", profile: "  Ana  ", ext: "json", want: "report_Ana.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.profile, tt.ext))
		})
	}
}

func TestLocalSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	sink := NewLocalSink(dir)

	location, err := sink.Save(context.Background(), "report_Ana.json", "application/json", []byte(`{"ok":true}`))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report_Ana.json"), location)

	data, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))

	info, err := os.Stat(location)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLocalSinkCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocalSink(t.TempDir()).Save(ctx, "r.json", "", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	if params.Body != nil {
		f.body, _ = io.ReadAll(params.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3SinkSave(t *testing.T) {
	client := &fakeS3{}
	sink := newS3Sink(client, config.S3Config{
		Bucket:               "careers",
		Prefix:               "/reports/",
		ServerSideEncryption: "AES256",
	})

	location, err := sink.Save(context.Background(), "report_Ana.json", "application/json", []byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, "s3://careers/reports/report_Ana.json", location)
	assert.Equal(t, "careers", aws.ToString(client.input.Bucket))
	assert.Equal(t, "reports/report_Ana.json", aws.ToString(client.input.Key))
	assert.Equal(t, "application/json", aws.ToString(client.input.ContentType))
	assert.Equal(t, s3types.ServerSideEncryptionAes256, client.input.ServerSideEncryption)
	assert.Equal(t, int64(2), aws.ToInt64(client.input.ContentLength))
	assert.Equal(t, []byte("{}"), client.body)
}

func TestS3SinkSaveError(t *testing.T) {
	client := &fakeS3{err: stderrors.New("access denied")}
	sink := newS3Sink(client, config.S3Config{Bucket: "careers"})

	_, err := sink.Save(context.Background(), "r.json", "", []byte("x"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeStorage, errors.TypeOf(err))
	assert.Empty(t, client.input.ServerSideEncryption)
}

func TestApplyPrefix(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "report.json", want: "report.json"},
		{name: "simple prefix", prefix: "reports", key: "report.json", want: "reports/report.json"},
		{name: "slashes", prefix: "/reports/", key: "/report.json", want: "reports/report.json"},
		{name: "nested prefix", prefix: "a/b", key: "report.json", want: "a/b/report.json"},
		{name: "empty key", prefix: "reports", key: "", want: "reports"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, applyPrefix(tt.prefix, tt.key))
		})
	}
}

func TestNewSink(t *testing.T) {
	sink, err := NewSink(context.Background(), config.ReportsConfig{Sink: "local", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalSink{}, sink)

	_, err = NewSink(context.Background(), config.ReportsConfig{Sink: "ftp"})
	assert.Equal(t, errors.ErrorTypeConfig, errors.TypeOf(err))

	_, err = NewSink(context.Background(), config.ReportsConfig{Sink: "s3"})
	assert.Equal(t, errors.ErrorTypeConfig, errors.TypeOf(err))
}

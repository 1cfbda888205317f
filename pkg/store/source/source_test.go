package source

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/de-tools/job-pulse/pkg/models/domain"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var mapping = domain.ColumnMapping{Date: "run_date", Value: "jobs", Source: "region"}

func day(d int) time.Time {
	return time.Date(2024, 9, d, 0, 0, 0, 0, time.UTC)
}

const sampleCSV = `run_date,region,jobs
2024-09-01,HK,100
2024-09-02,HK,150
2024-09-02,HK,not-a-number
bad-date,HK,10
2024-09-03,HK,-5
2024-09-04,HK,
2024-09-05,HK,1234.5
`

func TestReadCSV_ExcludesMalformedRows(t *testing.T) {
	// When
	frame, err := ReadCSV(context.Background(), strings.NewReader(sampleCSV), mapping)

	// Then
	require.NoError(t, err)
	assert.Equal(t, 4, frame.Skipped)
	assert.Equal(t, []domain.DataPoint{
		{Date: day(1), SourceTag: "HK", Value: 100},
		{Date: day(2), SourceTag: "HK", Value: 150},
		{Date: day(5), SourceTag: "HK", Value: 1234.5},
	}, frame.Points)
}

func TestReadCSV_MissingColumn(t *testing.T) {
	_, err := ReadCSV(context.Background(), strings.NewReader("date,count\n2024-09-01,1\n"), mapping)
	assert.ErrorContains(t, err, `date column "run_date" not found`)
}

func TestReadCSV_CustomLayout(t *testing.T) {
	m := domain.ColumnMapping{Date: "day", Value: "n", DateLayout: "02/01/2006"}
	frame, err := ReadCSV(context.Background(), strings.NewReader("day,n\n01/09/2024,7\n"), m)
	require.NoError(t, err)
	require.Len(t, frame.Points, 1)
	assert.Equal(t, day(1), frame.Points[0].Date)
	assert.Equal(t, "", frame.Points[0].SourceTag)
}

func TestNewRowBuilder_RequiresMapping(t *testing.T) {
	_, err := NewRowBuilder([]string{"a"}, domain.ColumnMapping{})
	assert.Error(t, err)
}

func TestRowBuilder_TypedCells(t *testing.T) {
	b, err := NewRowBuilder([]string{"run_date", "jobs"}, domain.ColumnMapping{Date: "run_date", Value: "jobs"})
	require.NoError(t, err)

	assert.True(t, b.Add([]any{day(1).Add(13 * time.Hour), int64(5)}))
	assert.True(t, b.Add([]any{int32(19966), 2.5}))
	assert.False(t, b.Add([]any{nil, int64(1)}))
	assert.False(t, b.Add([]any{day(2), nil}))
	assert.False(t, b.Add([]any{day(2), -1.0}))
	assert.False(t, b.Add([]any{day(2)}))

	frame := b.Frame()
	assert.Equal(t, 4, frame.Skipped)
	require.Len(t, frame.Points, 2)
	assert.Equal(t, day(1), frame.Points[0].Date)
	assert.Equal(t, time.Date(2024, 8, 31, 0, 0, 0, 0, time.UTC), frame.Points[1].Date)
}

func TestCSVLoader_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hk.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	frame, err := NewCSVLoader().Load(context.Background(), domain.SourceSpec{Tag: "HK", Path: path, Columns: mapping})
	require.NoError(t, err)
	assert.Len(t, frame.Points, 3)

	_, err = NewCSVLoader().Load(context.Background(), domain.SourceSpec{Tag: "HK", Path: filepath.Join(dir, "missing.csv"), Columns: mapping})
	assert.Error(t, err)
}

type parquetRow struct {
	RunDate string `parquet:"run_date"`
	Region  string `parquet:"region"`
	Jobs    int64  `parquet:"jobs"`
}

func TestParquetLoader_Load(t *testing.T) {
	// Given
	path := filepath.Join(t.TempDir(), "uk.parquet")
	require.NoError(t, parquet.WriteFile(path, []parquetRow{
		{RunDate: "2024-09-01", Region: "UK", Jobs: 200},
		{RunDate: "2024-09-02", Region: "UK", Jobs: 50},
		{RunDate: "garbage", Region: "UK", Jobs: 1},
	}))

	// When
	frame, err := NewParquetLoader().Load(context.Background(), domain.SourceSpec{Tag: "UK", Path: path, Columns: mapping})

	// Then
	require.NoError(t, err)
	assert.Equal(t, 1, frame.Skipped)
	assert.Equal(t, []domain.DataPoint{
		{Date: day(1), SourceTag: "UK", Value: 200},
		{Date: day(2), SourceTag: "UK", Value: 50},
	}, frame.Points)
}

type mockObjectGetter struct {
	mock.Mock
}

func (m *mockObjectGetter) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, *params.Bucket, *params.Key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.GetObjectOutput), args.Error(1)
}

func TestS3Loader_LoadCSV(t *testing.T) {
	getter := new(mockObjectGetter)
	getter.On("GetObject", mock.Anything, "jobs", "daily/hk.csv").Return(&s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader(sampleCSV)),
	}, nil)

	frame, err := NewS3LoaderWithClient(getter).Load(context.Background(), domain.SourceSpec{
		Tag:     "HK",
		Kind:    domain.SourceKindS3,
		Path:    "s3://jobs/daily/hk.csv",
		Columns: mapping,
	})

	require.NoError(t, err)
	assert.Len(t, frame.Points, 3)
	getter.AssertExpectations(t)
}

func TestS3Loader_GetObjectFails(t *testing.T) {
	getter := new(mockObjectGetter)
	getter.On("GetObject", mock.Anything, "jobs", "hk.csv").Return(nil, errors.New("access denied"))

	_, err := NewS3LoaderWithClient(getter).Load(context.Background(), domain.SourceSpec{Path: "s3://jobs/hk.csv", Columns: mapping})
	assert.ErrorContains(t, err, "access denied")
}

func TestParseS3URL(t *testing.T) {
	bucket, key, err := parseS3URL("s3://bucket/a/b.parquet")
	require.NoError(t, err)
	assert.Equal(t, "bucket", bucket)
	assert.Equal(t, "a/b.parquet", key)

	for _, raw := range []string{"https://bucket/key", "s3://bucket", "s3:///key"} {
		_, _, err := parseS3URL(raw)
		assert.Error(t, err, raw)
	}
}

type stubLoader struct {
	frame domain.Frame
	err   error
}

func (s *stubLoader) Load(context.Context, domain.SourceSpec) (domain.Frame, error) {
	return s.frame, s.err
}

func TestRegistry_DispatchesByKind(t *testing.T) {
	frame := domain.NewFrame(domain.DataPoint{Date: day(1), Value: 1})
	r := NewRegistry(map[domain.SourceKind]Loader{domain.SourceKindCSV: &stubLoader{frame: frame}})

	got, err := r.Load(context.Background(), domain.SourceSpec{Kind: domain.SourceKindCSV})
	require.NoError(t, err)
	assert.Equal(t, frame, got)

	_, err = r.Load(context.Background(), domain.SourceSpec{Kind: domain.SourceKindSQL})
	assert.ErrorContains(t, err, `source kind "sql" is not registered`)

	require.NoError(t, r.Register(domain.SourceKindSQL, &stubLoader{}))
	assert.Error(t, r.Register(domain.SourceKindSQL, &stubLoader{}))
	assert.Error(t, r.Register("", &stubLoader{}))
	assert.Equal(t, []domain.SourceKind{domain.SourceKindCSV, domain.SourceKindSQL}, r.ListKinds())
}

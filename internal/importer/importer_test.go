package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"memberhub/internal/mapper"
	"memberhub/internal/members"
	"memberhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = "\xEF\xBB\xBFfirst_name,last_name,dob,email,local_address\n" +
	"John,Doe,1990-05-15,john@example.com,\"123 Main St, Springfield\"\n" +
	",,,,\n" +
	"Sarah,Johnson,1985-08-22,,\"456 \"\"Oak\"\" Ave, Austin\"\n"

func TestDecodeCSV(t *testing.T) {
	rows, err := DecodeCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "John", rows[0]["first_name"])
	assert.Equal(t, "123 Main St, Springfield", rows[0]["local_address"])
	assert.Equal(t, `456 "Oak" Ave, Austin`, rows[1]["local_address"])
	assert.Equal(t, "", rows[1]["email"])
}

func TestDecodeCSV_RowNumbersSkipBlankLines(t *testing.T) {
	rows, err := DecodeCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	rows[1]["last_name"] = ""
	res := mapper.New().Map(rows)
	assert.Equal(t, []string{"Row 3: Missing required fields (last_name)"}, res.Invalid)
}

func TestDecodeCSV_Malformed(t *testing.T) {
	_, err := DecodeCSV(strings.NewReader("a,b\n\"unterminated,1\n"))
	assert.Error(t, err)
}

func buildWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"First Name", "Last Name", "Date of Birth", "Employed"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Mike", "Wilson", "1995-12-03", "yes"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"Emma", "Brown"}))

	_, err := f.NewSheet("Ignored")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Ignored", "A1", &[]interface{}{"x"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDecodeXLSX_FirstSheet(t *testing.T) {
	rows, err := DecodeXLSX(bytes.NewReader(buildWorkbook(t)))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, mapper.Row{"First Name": "Mike", "Last Name": "Wilson", "Date of Birth": "1995-12-03", "Employed": "yes", mapper.SourceKey: "1"}, rows[0])
	assert.Equal(t, "", rows[1]["Date of Birth"])

	res := mapper.New().Map(rows)
	require.Len(t, res.Valid, 1)
	assert.True(t, res.Valid[0].IsEmployed)
	assert.Equal(t, []string{"Row 2: Missing required fields (dob)"}, res.Invalid)
}

func TestDecodeXLSX_NotAWorkbook(t *testing.T) {
	_, err := DecodeXLSX(strings.NewReader("plain text"))
	assert.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name, contentType string
		want              Format
		err               bool
	}{
		{"members.csv", "", FormatCSV, false},
		{"MEMBERS.CSV", "", FormatCSV, false},
		{"members.xlsx", "", FormatXLSX, false},
		{"members.xls", "", "", true},
		{"export", "text/csv; charset=utf-8", FormatCSV, false},
		{"download", "application/octet-stream", FormatXLSX, false},
		{"", "", FormatXLSX, false},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.name, tt.contentType)
		if tt.err {
			assert.ErrorIs(t, err, ErrUnsupportedFormat, tt.name)
			continue
		}
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestSheetsExportURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{
			"https://docs.google.com/spreadsheets/d/abc123/edit#gid=456",
			"https://docs.google.com/spreadsheets/d/abc123/export?format=csv&gid=456", true,
		},
		{
			"https://docs.google.com/spreadsheets/d/abc123/edit?usp=sharing",
			"https://docs.google.com/spreadsheets/d/abc123/export?format=csv&gid=0", true,
		},
		{
			"https://docs.google.com/spreadsheets/d/abc123",
			"https://docs.google.com/spreadsheets/d/abc123/export?format=csv&gid=0", true,
		},
		{"https://docs.google.com/document/d/abc123/edit", "", false},
		{"https://example.com/spreadsheets/d/abc123/edit", "", false},
	}
	for _, tt := range tests {
		got, ok := SheetsExportURL(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/members.csv":
			w.Write([]byte(sampleCSV))
		case "/export":
			w.Header().Set("Content-Type", "text/csv")
			w.Write([]byte("name,dob\nJane Roe,2000-01-01\n"))
		case "/book":
			w.Write(buildWorkbook(t))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(0)
	ctx := context.Background()

	rows, err := f.Fetch(ctx, srv.URL+"/members.csv")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = f.Fetch(ctx, srv.URL+"/export")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Jane Roe", rows[0]["name"])

	rows, err = f.Fetch(ctx, srv.URL+"/book")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = f.Fetch(ctx, srv.URL+"/missing.csv")
	assert.ErrorContains(t, err, "404")

	_, err = f.Fetch(ctx, "ftp://example.com/a.csv")
	assert.Error(t, err)
}

func TestFetch_RejectsOversizedFile(t *testing.T) {
	var body strings.Builder
	body.WriteString("first_name,last_name,dob\n")
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&body, "A%d,Doe,1990-01-01\n", i)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body.String()))
	}))
	defer srv.Close()

	f := NewFetcher(0)
	f.maxBytes = int64(body.Len() - 10)
	rows, err := f.Fetch(context.Background(), srv.URL+"/members.csv")
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Nil(t, rows)

	f.maxBytes = int64(body.Len())
	rows, err = f.Fetch(context.Background(), srv.URL+"/members.csv")
	require.NoError(t, err)
	assert.Len(t, rows, 100)
}

type fakeCreator struct {
	mu      sync.Mutex
	created []models.Form
	fail    map[string]bool
	offline bool
	bulk    int
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeCreator) Create(_ context.Context, form models.Form) (*models.Member, members.Outcome, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[form.FirstName] {
		return nil, members.Outcome{}, errors.New("disk full")
	}
	f.created = append(f.created, form)
	m := form.Member(models.ID(form.FirstName))
	if f.offline {
		return &m, members.Outcome{Path: members.PathLocalFallback}, nil
	}
	return &m, members.Outcome{Path: members.PathRemoteConfirmed}, nil
}

func (f *fakeCreator) BulkCreate(_ context.Context, forms []models.Form) ([]models.Member, members.Outcome, error) {
	f.bulk++
	out := make([]models.Member, len(forms))
	for i, form := range forms {
		out[i] = form.Member(models.ID(form.FirstName))
	}
	return out, members.Outcome{Path: members.PathRemoteConfirmed}, nil
}

type progressLog struct {
	mu    sync.Mutex
	steps [][2]int
}

func (p *progressLog) Progress(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps = append(p.steps, [2]int{done, total})
}

func validRows() []mapper.Row {
	return []mapper.Row{
		{"first_name": "John", "last_name": "Doe", "dob": "1990-05-15"},
		{"first_name": "Sarah", "last_name": "Johnson", "dob": "1985-08-22"},
		{"first_name": "Mike", "last_name": "Wilson", "dob": "1995-12-03"},
	}
}

func TestRun_Sequential(t *testing.T) {
	creator := &fakeCreator{fail: map[string]bool{"Sarah": true}}
	progress := &progressLog{}
	im := New(creator, nil, progress, nil)

	report, err := im.Run(context.Background(), validRows(), false)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"Failed to add Sarah Johnson: disk full"}, report.Errors)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, progress.steps)

	state := im.Progress()
	assert.False(t, state.Running)
	assert.Equal(t, 3, state.Done)
	assert.Equal(t, 1.0, state.Ratio)
}

func TestRun_FallbackCounted(t *testing.T) {
	creator := &fakeCreator{offline: true}
	report, err := New(creator, nil, nil, nil).Run(context.Background(), validRows(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Imported)
	assert.Equal(t, 3, report.Fallback)
}

func TestRun_InvalidRowsAbortBeforeAnyCall(t *testing.T) {
	creator := &fakeCreator{}
	rows := validRows()
	rows[1] = mapper.Row{"first_name": "Sarah", "dob": "1985-08-22"}

	report, err := New(creator, nil, nil, nil).Run(context.Background(), rows, false)
	assert.ErrorIs(t, err, ErrInvalidRows)
	assert.Equal(t, 1, report.Invalid)
	assert.Equal(t, []string{"Row 2: Missing required fields (last_name)"}, report.Errors)
	assert.Empty(t, creator.created)
}

func TestRun_Batch(t *testing.T) {
	creator := &fakeCreator{}
	progress := &progressLog{}
	report, err := New(creator, nil, progress, nil).Run(context.Background(), validRows(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, creator.bulk)
	assert.Equal(t, 3, report.Imported)
	assert.True(t, report.Batch)
	assert.Equal(t, [][2]int{{3, 3}}, progress.steps)
}

func TestRun_Empty(t *testing.T) {
	_, err := New(&fakeCreator{}, nil, nil, nil).Run(context.Background(), nil, false)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestRun_OneAtATime(t *testing.T) {
	creator := &fakeCreator{block: make(chan struct{}), entered: make(chan struct{})}
	im := New(creator, nil, nil, nil)

	done := make(chan error, 1)
	go func() {
		_, err := im.Run(context.Background(), validRows()[:1], false)
		done <- err
	}()
	<-creator.entered

	assert.True(t, im.Progress().Running)
	_, err := im.Run(context.Background(), validRows(), false)
	assert.ErrorIs(t, err, ErrBusy)

	close(creator.block)
	require.NoError(t, <-done)

	creator.entered = nil
	_, err = im.Run(context.Background(), validRows(), false)
	assert.NoError(t, err)
}

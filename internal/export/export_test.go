package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FranksOps/scholartrend/internal/query"
	"github.com/FranksOps/scholartrend/internal/trend"
	"github.com/stretchr/testify/require"
)

func sampleSet() trend.ResultSet {
	return trend.ResultSet{
		{Year: 2020, TotalCount: 3410, Entries: []string{`A Smith, B "Bo" Jones - Nature, 2020 - nature.com`, "C Lee - Science, 2020"}},
		{Year: 2021, TotalCount: 0, Entries: []string{}},
		{Year: 2022, TotalCount: 2005, Entries: []string{"D Kim, E Park - arXiv preprint, 2022"}},
	}
}

func TestWriteCSV_CountsLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleSet(), LayoutCounts))
	require.Equal(t, "year,numberOfResults\n2020,3410\n2021,0\n2022,2005\n", buf.String())
}

func TestWriteCSV_EntriesLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleSet(), LayoutEntries))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Equal(t, []string{
		"year,totalResults,authorYear",
		`2020,3410,"A Smith, B ""Bo"" Jones - Nature, 2020 - nature.com"`,
		`2020,3410,"C Lee - Science, 2020"`,
		"2021,0,",
		`2022,2005,"D Kim, E Park - arXiv preprint, 2022"`,
	}, lines)
}

func TestCSV_RoundTrip(t *testing.T) {
	for _, layout := range []Layout{LayoutCounts, LayoutEntries} {
		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, sampleSet(), layout))

		got, err := ReadCSV(&buf)
		require.NoError(t, err)
		require.Equal(t, sampleSet().Years(), got.Years())
		require.Equal(t, sampleSet().Counts(), got.Counts())

		if layout == LayoutEntries {
			for i := range got {
				require.Equal(t, sampleSet()[i].Entries, got[i].Entries)
			}
		}
	}
}

func TestReadCSV_Malformed(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b,c,d\n1,2,3,4\n"))
	require.ErrorIs(t, err, ErrMalformedCSV)

	_, err = ReadCSV(strings.NewReader("year,numberOfResults\nabc,1\n"))
	require.ErrorIs(t, err, ErrMalformedCSV)

	rs, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, rs)
}

func TestWriteCSVFile_CreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	require.NoError(t, WriteCSVFile(path, sampleSet(), LayoutCounts))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rs, err := ReadCSV(f)
	require.NoError(t, err)
	require.Len(t, rs, 3)
}

func TestPlotTrend_WritesPNG(t *testing.T) {
	q := query.New([]string{"Tungsten", "alloy"}, query.And)
	r := query.YearRange{Since: 2020, To: 2022}

	var buf bytes.Buffer
	require.NoError(t, PlotTrend(&buf, q, r, sampleSet()))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")))

	require.Error(t, PlotTrend(&buf, q, r, nil))
}

func TestPlotTrendFile(t *testing.T) {
	dir := t.TempDir()
	q := query.New([]string{"Tungsten", "alloy"}, query.And)

	path, err := PlotTrendFile(dir, q, query.YearRange{Since: 2020, To: 2022}, sampleSet())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "trend_Tungsten_alloy.png"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Positive(t, info.Size())
}

func TestPlotNaming(t *testing.T) {
	q := query.New([]string{"machine learning", "a/b"}, query.Or)
	require.Equal(t, "trend_machine learning_a-b.png", PlotFileName(q))
	require.Equal(t, `Google Scholar Results for "machine learning a/b" (1998-2007)`,
		PlotTitle(q, query.YearRange{Since: 1998, To: 2007}))
}

func TestYearTicks(t *testing.T) {
	ticks := yearTicks{}.Ticks(1998, 2007)
	require.Len(t, ticks, 10)
	for _, tk := range ticks {
		require.NotEmpty(t, tk.Label)
	}

	ticks = yearTicks{}.Ticks(1950, 2020)
	labelled := 0
	for _, tk := range ticks {
		if tk.Label != "" {
			labelled++
		}
	}
	require.LessOrEqual(t, labelled, 10)
	require.Equal(t, "1950", ticks[0].Label)
}

func TestWriteSearchInfo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSearchInfo(&buf, query.New([]string{"a", "b"}, query.Or)))
	require.Equal(t, "Keywords: a, b\nFilter Type: OR\n", buf.String())

	path := filepath.Join(t.TempDir(), "info.txt")
	require.NoError(t, WriteSearchInfoFile(path, query.New([]string{"Tungsten"}, query.And)))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "Keywords: Tungsten\nFilter Type: AND\n", string(data))
}

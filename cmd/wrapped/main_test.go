package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInputs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	history := "dateStr;duration;seriesTitle;title\n" +
		"2020-01-01;3600;ShowA;ShowA: Episode 2\n" +
		"2020-01-02;1800;;Some Film\n" +
		"2019-12-31;900;ShowA;ShowA: Episode 1\n" +
		"2021-02-01;7200;ShowB;ShowB: Episode 1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "viewedHistory.csv"), []byte(history), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "genres.json"), []byte(`{"Drama": 5, "Comedy": 2}`), 0o644))

	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Flag values persist across Execute calls on the package-level commands.
	configPath, year, verbose = "", 0, false
	summaryJSON, summaryOutput, genresOutput = false, "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestSummary_Terminal(t *testing.T) {
	writeInputs(t)

	out, err := execute(t, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "In 2020 you watched the total of")
	assert.Contains(t, out, "1.5")
	assert.Contains(t, out, "ShowA")
}

func TestSummary_JSONForOtherYear(t *testing.T) {
	writeInputs(t)

	out, err := execute(t, "summary", "--json", "--year", "2021")
	require.NoError(t, err)

	var review struct {
		Year       int     `json:"year"`
		EventCount int     `json:"event_count"`
		TotalHours float64 `json:"total_hours"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &review))
	assert.Equal(t, 2021, review.Year)
	assert.Equal(t, 1, review.EventCount)
	assert.Equal(t, 2.0, review.TotalHours)
}

func TestSummary_HTML(t *testing.T) {
	dir := writeInputs(t)
	path := filepath.Join(dir, "wrapped.html")

	out, err := execute(t, "summary", "--html", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	page, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(page), "What did you watch?")
}

func TestSummary_MissingHistory(t *testing.T) {
	dir := writeInputs(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "viewedHistory.csv")))

	_, err := execute(t, "summary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "viewedHistory.csv")
}

func TestGenres_RequiresAPIKey(t *testing.T) {
	writeInputs(t)
	t.Setenv("WRAPPED_METADATA_API_KEY", "")

	_, err := execute(t, "genres", "lookup", "Dark")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")
}

func TestGenres_BuildAgainstFakeAPI(t *testing.T) {
	dir := writeInputs(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("t") {
		case "ShowA":
			io.WriteString(w, `{"Title":"ShowA","Genre":"Drama, Comedy","Response":"True"}`)
		default:
			io.WriteString(w, `{"Response":"False","Error":"Movie not found!"}`)
		}
	}))
	defer server.Close()

	t.Setenv("WRAPPED_METADATA_BASE_URL", server.URL)
	t.Setenv("WRAPPED_METADATA_API_KEY", "test-key")

	path := filepath.Join(dir, "built.json")
	out, err := execute(t, "genres", "build", "--output", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 matched, 1 without match")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var genres map[string]int
	require.NoError(t, json.Unmarshal(data, &genres))
	assert.Equal(t, map[string]int{"Drama": 1, "Comedy": 1}, genres)

	out, err = execute(t, "genres", "lookup", "Nothing", "Here")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing Here: no match")
}

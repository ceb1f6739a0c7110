package client

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/common"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/models"
	"github.com/RuthKerubo/dsh-etl-search-ai-v1/internal/resources"
)

func testClient(t *testing.T, handler http.Handler, concurrency int) (*CatalogueClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := arbor.NewLogger()
	factory := resources.NewFactory(nil, logger)
	config := &common.CatalogueConfig{
		BaseURL:       server.URL,
		SupportingURL: server.URL + "/sd",
		Concurrency:   concurrency,
	}
	return NewCatalogueClient(factory, config, logger), server
}

func catalogueHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/id/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Accept") {
		case "application/json":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"id": "x", "title": "X"}`)
		case "application/xml":
			w.Header().Set("Content-Type", "application/xml")
			fmt.Fprint(w, `<MD_Metadata/>`)
		default:
			http.Error(w, "unknown format", http.StatusBadRequest)
		}
	})
	return mux
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []Format
		wantErr  bool
	}{
		{"default both", nil, []Format{FormatJSON, FormatXML}, false},
		{"json only", []string{"json"}, []Format{FormatJSON}, false},
		{"xml aliases gemini", []string{"xml"}, []Format{FormatXML}, false},
		{"gemini", []string{"gemini"}, []Format{FormatXML}, false},
		{"unknown rejected", []string{"yaml"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormats(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRecordURL(t *testing.T) {
	c, server := testClient(t, catalogueHandler(), 1)

	assert.Equal(t, server.URL+"/id/abc?format=json", c.RecordURL("abc", FormatJSON))
	assert.Equal(t, server.URL+"/id/abc.xml?format=gemini", c.RecordURL("abc", FormatXML))
	assert.Equal(t, server.URL+"/sd/abc.zip", c.SupportingDocsURL("abc"))
}

func TestFetchDataset(t *testing.T) {
	c, _ := testClient(t, catalogueHandler(), 1)

	record := c.FetchDataset(context.Background(), "abc", []Format{FormatJSON, FormatXML})
	require.NoError(t, record.Err)
	assert.Equal(t, "abc", record.DatasetID)
	assert.False(t, record.FromCache)

	require.Contains(t, record.Results, "json")
	assert.Equal(t, `{"id": "x", "title": "X"}`, string(record.Results["json"].Content))
	require.Contains(t, record.Results, "gemini")
	assert.Equal(t, `<MD_Metadata/>`, string(record.Results["gemini"].Content))
}

func TestFetchDatasetFormatFailureMarksRecord(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/id/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") == "application/json" {
			fmt.Fprint(w, `{"id": "x"}`)
			return
		}
		http.NotFound(w, r)
	})

	c, _ := testClient(t, mux, 1)
	record := c.FetchDataset(context.Background(), "abc", []Format{FormatJSON, FormatXML})

	require.Error(t, record.Err)
	assert.Contains(t, record.Err.Error(), "format gemini")
}

func TestFetchAllOrderAndProgress(t *testing.T) {
	c, _ := testClient(t, catalogueHandler(), 1)
	ids := []string{"a", "b", "c"}

	var events []models.FetchProgress
	records := c.FetchAll(context.Background(), ids, []Format{FormatJSON}, func(p models.FetchProgress) {
		events = append(events, p)
	})

	// Records come back in input order regardless of completion order.
	require.Len(t, records, 3)
	for i, id := range ids {
		assert.Equal(t, id, records[i].DatasetID)
		assert.NoError(t, records[i].Err)
	}

	// Each dataset emits fetching strictly before its terminal event.
	require.Len(t, events, 6)
	seen := make(map[string]models.FetchStatus)
	for _, e := range events {
		switch e.Status {
		case models.FetchStatusFetching:
			_, ok := seen[e.DatasetID]
			assert.False(t, ok, "duplicate fetching event for %s", e.DatasetID)
			seen[e.DatasetID] = e.Status
		case models.FetchStatusCompleted, models.FetchStatusFailed:
			assert.Equal(t, models.FetchStatusFetching, seen[e.DatasetID],
				"terminal event before fetching for %s", e.DatasetID)
			seen[e.DatasetID] = e.Status
		}
		assert.Equal(t, 3, e.Total)
	}
	for _, id := range ids {
		assert.Equal(t, models.FetchStatusCompleted, seen[id])
	}
}

func TestFetchAllRecordsFailures(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/id/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/id/bad" {
			http.Error(w, "denied", http.StatusForbidden)
			return
		}
		fmt.Fprint(w, `{"id": "x"}`)
	})

	c, _ := testClient(t, mux, 2)
	records := c.FetchAll(context.Background(), []string{"good", "bad"}, []Format{FormatJSON}, nil)

	require.Len(t, records, 2)
	assert.NoError(t, records[0].Err)
	assert.Error(t, records[1].Err)
}

func TestFetchAllStream(t *testing.T) {
	c, _ := testClient(t, catalogueHandler(), 2)

	out := c.FetchAllStream(context.Background(), []string{"a", "b", "c"}, []Format{FormatJSON})

	got := make(map[string]bool)
	for record := range out {
		got[record.DatasetID] = record.Err == nil
	}
	assert.Equal(t, map[string]bool{"a": true, "b": true, "c": true}, got)
}

func TestFetchAllStreamOrderSingleSlot(t *testing.T) {
	server := httptest.NewServer(catalogueHandler())
	t.Cleanup(server.Close)

	logger := arbor.NewLogger()
	factory := resources.NewFactory(nil, logger)
	config := &common.CatalogueConfig{
		BaseURL:      server.URL,
		Concurrency:  1,
		RequestDelay: time.Millisecond,
	}
	c := NewCatalogueClient(factory, config, logger)

	ids := make([]string, 40)
	for i := range ids {
		ids[i] = fmt.Sprintf("ds-%03d", i)
	}

	out := c.FetchAllStream(context.Background(), ids, []Format{FormatJSON})

	// With a single concurrency slot and spaced requests, records must
	// arrive in input order.
	got := make([]string, 0, len(ids))
	for record := range out {
		require.NoError(t, record.Err)
		got = append(got, record.DatasetID)
	}
	assert.Equal(t, ids, got)
}

func TestFetchDatasetFromCacheAnyFormat(t *testing.T) {
	server := httptest.NewServer(catalogueHandler())
	t.Cleanup(server.Close)

	logger := arbor.NewLogger()
	cache, err := resources.NewDiskCache(t.TempDir(), 0, logger)
	require.NoError(t, err)
	factory := resources.NewFactory(cache, logger)
	c := NewCatalogueClient(factory, &common.CatalogueConfig{BaseURL: server.URL, Concurrency: 1}, logger)

	first := c.FetchDataset(context.Background(), "abc", []Format{FormatJSON})
	require.NoError(t, first.Err)
	assert.False(t, first.FromCache)

	// JSON is now cached, GEMINI is fetched fresh; any cached format
	// counts the record as a cache hit.
	mixed := c.FetchDataset(context.Background(), "abc", []Format{FormatJSON, FormatXML})
	require.NoError(t, mixed.Err)
	assert.True(t, mixed.FromCache)
}

func TestFetchDatasetSupportingDocs(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"methodology.pdf", "readme.txt"} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte("content"))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	mux := http.NewServeMux()
	mux.HandleFunc("/id/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": "x"}`)
	})
	mux.HandleFunc("/sd/abc.zip", func(w http.ResponseWriter, r *http.Request) {
		w.Write(buf.Bytes())
	})

	c, _ := testClient(t, mux, 1)
	c.config.FetchSupportingDocs = true

	record := c.FetchDataset(context.Background(), "abc", []Format{FormatJSON})
	require.NoError(t, record.Err)
	assert.Equal(t, []string{"methodology.pdf", "readme.txt"}, record.SupportingFiles)

	// A missing archive never fails the record.
	record = c.FetchDataset(context.Background(), "no-docs", []Format{FormatJSON})
	require.NoError(t, record.Err)
	assert.Empty(t, record.SupportingFiles)
}

func TestDatasetExists(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/id/present", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	c, _ := testClient(t, mux, 1)
	assert.True(t, c.DatasetExists(context.Background(), "present"))
	assert.False(t, c.DatasetExists(context.Background(), "absent"))
}

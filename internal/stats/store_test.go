package stats

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `{
    "metadata": {"total_records": 1200},
    "genres": {
        "Classical": {"num_songs": 300, "avg_energy": 0.21, "avg_valence": 0.33},
        "Metal": {"num_songs": 150, "avg_energy": 0.91, "avg_valence": 0.27}
    },
    "decades": {
        "1980.0": {
            "Classical": {"num_songs": 40, "avg_energy": 0.19, "avg_valence": 0.35}
        },
        "1990.0": {
            "Classical": {"num_songs": 0}
        }
    }
}`

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func writeDocument(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "genres_summary.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDecadeKey(t *testing.T) {
	tests := []struct {
		label   string
		want    string
		wantErr bool
	}{
		{"1980", "1980.0", false},
		{" 2020 ", "2020.0", false},
		{"1990.0", "1990.0", false},
		{"1985.04", "1985.0", false},
		{"eighties", "", true},
		{"", "", true},
		{"NaN", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := DecadeKey(tt.label)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDecade)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTooltipUsesDecadeStats(t *testing.T) {
	doc, err := Decode(strings.NewReader(sampleDocument))
	require.NoError(t, err)

	tip, err := doc.Tooltip("Classical", "1980")
	require.NoError(t, err)
	assert.Equal(t, Tooltip{
		Genre:       "Classical",
		Decade:      1980,
		TotalSongs:  "300",
		DecadeSongs: "40",
		MeanEnergy:  "0.19",
		MeanValence: "0.35",
	}, tip)
}

func TestTooltipFallsBackToAggregate(t *testing.T) {
	doc, err := Decode(strings.NewReader(sampleDocument))
	require.NoError(t, err)

	// Metal only has aggregate data.
	tip, err := doc.Tooltip("Metal", "1980")
	require.NoError(t, err)
	assert.Equal(t, NotAvailable, tip.DecadeSongs)
	assert.Equal(t, "0.91", tip.MeanEnergy)
	assert.Equal(t, "0.27", tip.MeanValence)
	assert.Equal(t, "Total decade 1980: N/A", tip.Lines()[2])

	// A zero count is reported as missing; metrics fall back per field.
	tip, err = doc.Tooltip("Classical", "1990")
	require.NoError(t, err)
	assert.Equal(t, NotAvailable, tip.DecadeSongs)
	assert.Equal(t, "0.21", tip.MeanEnergy)
}

func TestTooltipUnknownGenre(t *testing.T) {
	doc, err := Decode(strings.NewReader(sampleDocument))
	require.NoError(t, err)

	_, err = doc.Tooltip("Polka", "1980")
	assert.Error(t, err)
}

func TestTooltipText(t *testing.T) {
	tip := Tooltip{Genre: "Metal", Decade: 2000, TotalSongs: "150", DecadeSongs: "N/A", MeanEnergy: "0.91", MeanValence: "0.27"}
	assert.Equal(t, "Genre: Metal\nTotal songs: 150\nTotal decade 2000: N/A\nMean energy: 0.91\nMean valence: 0.27", tip.Text())
}

func TestStoreEmptyUntilLoaded(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.json"), testLogger())

	assert.False(t, store.Loaded())
	_, err := store.Tooltip("Classical", "1980")
	assert.True(t, errors.Is(err, ErrNotLoaded))

	assert.Error(t, store.Load(context.Background()))
	assert.Nil(t, store.Document())
}

func TestStoreLoadFile(t *testing.T) {
	store := NewStore(writeDocument(t, sampleDocument), testLogger())

	require.NoError(t, store.Load(context.Background()))
	require.True(t, store.Loaded())
	assert.Equal(t, 1200, store.Document().Metadata.TotalRecords)

	tip, err := store.Tooltip("Classical", "1980")
	require.NoError(t, err)
	assert.Equal(t, "40", tip.DecadeSongs)
}

func TestStoreLoadInvalidKeepsPrevious(t *testing.T) {
	path := writeDocument(t, sampleDocument)
	store := NewStore(path, testLogger())
	require.NoError(t, store.Load(context.Background()))

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	assert.Error(t, store.Load(context.Background()))
	assert.Len(t, store.Document().Genres, 2)
}

func TestStoreLoadRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/genres_summary.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleDocument))
	}))
	defer srv.Close()

	store := NewStore(srv.URL+"/data/genres_summary.json", testLogger())
	assert.True(t, store.IsRemote())
	require.NoError(t, store.Load(context.Background()))
	assert.True(t, store.Loaded())

	missing := NewStore(srv.URL+"/nope.json", testLogger())
	assert.Error(t, missing.Load(context.Background()))
}

func TestStoreLoadAsync(t *testing.T) {
	store := NewStore(writeDocument(t, sampleDocument), testLogger())
	store.LoadAsync(context.Background())

	assert.Eventually(t, store.Loaded, 2*time.Second, 10*time.Millisecond)
}

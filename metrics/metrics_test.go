package metrics

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New(false)
	m.Document(DocumentExtracted, 2048)
	m.Document(DocumentExtracted, 1024)
	m.Document(DocumentFailed, 0)
	m.Candidates("numbered_article", 12)
	m.Built(10)
	m.Rejected(2)
	m.Disambiguated(1)
	m.Duplicates(3)
	m.RunDuration(150 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.documents.WithLabelValues(DocumentExtracted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.documents.WithLabelValues(DocumentFailed)))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.candidates.WithLabelValues("numbered_article")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.built))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rejected))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.disambiguated))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.duplicates))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Document(DocumentExtracted, 10)
		m.Candidates("structural_section", 1)
		m.Built(1)
		m.Rejected(1)
		m.Disambiguated(1)
		m.Duplicates(1)
		m.RunDuration(time.Second)
	})
}

func TestHandler(t *testing.T) {
	m := New(false)
	m.Built(4)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "golegis_articles_built_total 4")
}

func TestWriteFile(t *testing.T) {
	m := New(false)
	m.Rejected(7)

	path := filepath.Join(t.TempDir(), "golegis.prom")
	require.NoError(t, m.WriteFile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "golegis_articles_rejected_total 7"))
}

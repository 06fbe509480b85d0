package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestReadArchiveSkipsMetadataAndFlattensNames(t *testing.T) {
	data := buildZip(t, map[string]string{
		"reports/q1.pdf":        "first quarter",
		"reports/q2.pdf":        "second quarter",
		"reports/.DS_Store":     "junk",
		"__MACOSX/._q1.pdf":     "resource fork",
		"notes/deep/manual.pdf": "manual",
	})

	entries, err := readArchive(data)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	byName := make(map[string]string, len(entries))
	for _, e := range entries {
		byName[e.name] = string(e.data)
	}
	assert.Equal(t, "first quarter", byName["q1.pdf"])
	assert.Equal(t, "second quarter", byName["q2.pdf"])
	assert.Equal(t, "manual", byName["manual.pdf"])
}

func TestReadArchiveRejectsCorruptData(t *testing.T) {
	_, err := readArchive([]byte("this is not a zip file"))
	assert.Error(t, err)
}

func TestIngestFileWaitExpandsArchive(t *testing.T) {
	embedder := &countingEmbedder{}
	uc, docs, sections := newTestUsecase(t, &stubExtractor{}, embedder, 800, 400)

	data := buildZip(t, map[string]string{
		"a.pdf": numberedWords(100),
		"b.pdf": numberedWords(100),
	})

	err := uc.IngestFileWait(context.Background(), "bundle.zip", data)
	require.NoError(t, err)

	require.Len(t, docs.docs, 2)
	names := []string{docs.docs[0].Name, docs.docs[1].Name}
	assert.ElementsMatch(t, []string{"a.pdf", "b.pdf"}, names)

	assert.Len(t, sections.sections, 2)
	assert.Equal(t, 2, embedder.callCount())
}

func TestIngestArchiveToleratesBrokenEntry(t *testing.T) {
	embedder := &countingEmbedder{}
	uc, docs, sections := newTestUsecase(t, &stubExtractor{}, embedder, 800, 400)

	data := buildZip(t, map[string]string{
		"ok.pdf":    numberedWords(50),
		"empty.pdf": "   ",
	})

	// The empty entry is logged and skipped; the good one still lands.
	err := uc.IngestFileWait(context.Background(), "mixed.zip", data)
	require.NoError(t, err)

	require.Len(t, docs.docs, 1)
	assert.Equal(t, "ok.pdf", docs.docs[0].Name)
	assert.Len(t, sections.sections, 1)
}

package grepgo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_MixedCorpus(t *testing.T) {
	dir := testCorpus(t)

	res, err := List(context.Background(), []string{dir})
	require.NoError(t, err)

	require.Len(t, res.Entries, 3)
	assert.Equal(t, 3, res.TotalFiles)
	assert.Equal(t, 2, res.SearchableFiles)

	byPath := make(map[string]bool, len(res.Entries))
	for _, e := range res.Entries {
		byPath[filepath.Base(e.Path)] = e.Searchable
	}
	assert.True(t, byPath["a.rs"])
	assert.True(t, byPath["c.txt"])
	assert.False(t, byPath["b.bin"])
}

func TestList_FiltersMatchScan(t *testing.T) {
	dir := testCorpus(t)

	opts := []Option{WithIncludeExtensions("txt")}
	res, err := List(context.Background(), []string{dir}, opts...)
	require.NoError(t, err)

	assert.Equal(t, 3, res.TotalFiles)
	require.Equal(t, 1, res.SearchableFiles)

	// The listing predicts the scan's file set exactly.
	scanner, err := New("foo", append(opts, WithFilesWithMatches())...)
	require.NoError(t, err)
	scanRes, err := scanner.Scan(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, scanRes.Files, 1)
	assert.Equal(t, filepath.Join(dir, "c.txt"), scanRes.Files[0])
}

func TestList_ReportsReasons(t *testing.T) {
	dir := testCorpus(t)

	res, err := List(context.Background(), []string{dir})
	require.NoError(t, err)

	for _, e := range res.Entries {
		if e.Searchable {
			assert.Empty(t, e.Reason, e.Path)
			continue
		}
		assert.NotEmpty(t, e.Reason, e.Path)
		assert.Equal(t, "never-search", e.Class, e.Path)
	}
}

func TestList_MaxSizeGate(t *testing.T) {
	dir := testCorpus(t)

	res, err := List(context.Background(), []string{dir}, WithMaxFileSize(4))
	require.NoError(t, err)

	assert.Equal(t, 3, res.TotalFiles)
	assert.Equal(t, 0, res.SearchableFiles)
}

func TestList_MissingTarget(t *testing.T) {
	_, err := List(context.Background(), []string{"/does/not/exist"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTargetNotFound)
}

func TestScanner_List(t *testing.T) {
	dir := testCorpus(t)

	scanner, err := New("anything", WithIncludeExtensions("rs"))
	require.NoError(t, err)

	res, err := scanner.List(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalFiles)
	assert.Equal(t, 1, res.SearchableFiles)
}

package jobs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, "job.yaml", `
title: Backend Engineer
company: Acme
location: Remote
description: |
  We use Go, PostgreSQL and Kubernetes.
url: https://acme.example/jobs/1
job_type: Full-time
`)

	posting, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "Backend Engineer", posting.Title)
	assert.Equal(t, "Acme", posting.Company)
	assert.Equal(t, "Full-time", posting.JobType)
	assert.Contains(t, posting.Description, "PostgreSQL")
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeFile(t, "job.json", `{"title": "Data Engineer", "company": "Globex"}`)

	posting, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Data Engineer", posting.Title)
	assert.Empty(t, posting.Description)
}

func TestLoadFile_PlainText(t *testing.T) {
	path := writeFile(t, "job.txt", "\n  Looking for a React developer.  \n")

	posting, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Looking for a React developer.", posting.Description)
	assert.Empty(t, posting.Title)
}

func TestLoadFile_Invalid(t *testing.T) {
	_, err := LoadFile(writeFile(t, "job.yaml", "company: Acme\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid job posting")

	_, err = LoadFile(writeFile(t, "job.json", "{broken"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse job posting json")

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestPostingMerge(t *testing.T) {
	p := Posting{Title: "Go Engineer"}
	p.Merge(Posting{Title: "ignored", Company: "Acme", Description: "desc"})

	assert.Equal(t, Posting{Title: "Go Engineer", Company: "Acme", Description: "desc"}, p)
}

package breeds

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedDefault(t *testing.T) {
	set, err := Load(context.Background(), Source{})
	require.NoError(t, err)
	assert.True(t, set.Contains("Siamese"))
	assert.False(t, set.Contains("siamese"))
	names := set.Names()
	assert.Equal(t, set.Len(), len(names))
	assert.IsIncreasing(t, names)
}

func TestLoadLocalFiles(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "breeds.json")
	yamlPath := filepath.Join(dir, "breeds.yml")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"name":"Tabby"},{"name":"Calico"},{"name":"Tabby"}]`), 0o644))
	require.NoError(t, os.WriteFile(yamlPath, []byte("- name: Manx\n- name: Korat\n"), 0o644))

	set, err := Load(context.Background(), Source{Location: jsonPath})
	require.NoError(t, err)
	assert.Equal(t, []string{"Calico", "Tabby"}, set.Names())

	set, err = Load(context.Background(), Source{Location: yamlPath})
	require.NoError(t, err)
	assert.Equal(t, []string{"Korat", "Manx"}, set.Names())
}

func TestLoadRejectsBadSources(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"empty.json":     `[]`,
		"malformed.json": `{"name":`,
		"blank.json":     `[{"name":"  "}]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			p := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
			_, err := Load(context.Background(), Source{Location: p})
			assert.Error(t, err)
		})
	}

	_, err := Load(context.Background(), Source{Location: filepath.Join(dir, "missing.json")})
	assert.Error(t, err)
	_, err = Load(context.Background(), Source{Location: "s3://bucket-only"})
	assert.Error(t, err)
}

type fakeS3 struct {
	objects map[string]string
	paths   []string
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.paths = append(f.paths, req.URL.Path)
	body, ok := f.objects[strings.TrimPrefix(req.URL.Path, "/")]
	if req.Method != http.MethodGet || !ok {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(strings.NewReader(`<?xml version="1.0"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)),
			Header:     http.Header{"Content-Type": {"application/xml"}},
		}, nil
	}
	return &http.Response{
		StatusCode:    http.StatusOK,
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
		Header:        http.Header{"Content-Type": {"application/json"}},
	}, nil
}

func fakeS3Options(rt http.RoundTripper) S3Options {
	return S3Options{
		Region:          "us-east-1",
		Endpoint:        "https://mock.s3.local",
		PathStyle:       true,
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		HTTPClient:      &http.Client{Transport: rt},
	}
}

func TestLoadFromS3(t *testing.T) {
	rt := &fakeS3{objects: map[string]string{
		"agency/breeds.json": `[{"name":"Bengal"},{"name":"Sphynx"}]`,
		"agency/breeds.yaml": "- name: Ragdoll\n",
	}}
	opts := fakeS3Options(rt)

	set, err := Load(context.Background(), Source{Location: "s3://agency/breeds.json", S3: opts})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bengal", "Sphynx"}, set.Names())

	set, err = Load(context.Background(), Source{Location: "s3://agency/breeds.yaml", S3: opts})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ragdoll"}, set.Names())

	_, err = Load(context.Background(), Source{Location: "s3://agency/nope.json", S3: opts})
	assert.Error(t, err)
	assert.Contains(t, rt.paths, "/agency/breeds.json")
}

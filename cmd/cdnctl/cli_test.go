package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cdnCall struct {
	path     string
	insecure string
	filename string
}

func fakeCDN(t *testing.T, deleteBody string) (*[]cdnCall, string) {
	t.Helper()

	calls := &[]cdnCall{}

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		call := cdnCall{path: request.URL.Path}

		if request.Method == http.MethodPost {
			if err := request.ParseMultipartForm(1 << 20); err == nil {
				for _, headers := range request.MultipartForm.File {
					call.filename = headers[0].Filename
				}
			} else {
				_ = request.ParseForm()
				call.insecure = request.PostForm.Get("insecure")
			}
		}
		*calls = append(*calls, call)

		if request.URL.Path == "/delete-file" {
			_, _ = io.WriteString(writer, deleteBody)
			return
		}
		_, _ = io.WriteString(writer, `{"data":{"token":"T","edit_key":"E","name":"N"}}`)
	}))
	t.Cleanup(server.Close)

	t.Setenv("CDN_ENDPOINT_URL", server.URL)
	t.Setenv("CDN_API_TOKEN", "tok")

	return calls, server.URL
}

func execute(args ...string) (string, error) {
	var out, errOut bytes.Buffer

	root := rootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestUploadFileCommands(t *testing.T) {
	calls, _ := fakeCDN(t, "")

	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o600))

	for _, field := range []string{"pdf", "image", "video", "file"} {
		out, err := execute("upload", field, path)
		require.NoError(t, err)

		var asset map[string]string
		require.NoError(t, json.Unmarshal([]byte(out), &asset))
		assert.Equal(t, map[string]string{"file_token": "T", "edit_key": "E", "file_name": "N"}, asset)
	}

	require.Len(t, *calls, 4)
	assert.Equal(t, "/push-pdf", (*calls)[0].path)
	assert.Equal(t, "/push-image", (*calls)[1].path)
	assert.Equal(t, "/push-video", (*calls)[2].path)
	assert.Equal(t, "/push-file", (*calls)[3].path)
	assert.Equal(t, "doc.pdf", (*calls)[0].filename)
}

func TestUploadFileWithName(t *testing.T) {
	calls, _ := fakeCDN(t, "")

	path := filepath.Join(t.TempDir(), "raw.bin")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := execute("upload", "file", path, "--name", "report.txt")
	require.NoError(t, err)
	assert.Equal(t, "report.txt", (*calls)[0].filename)
}

func TestUploadRemoteCommand(t *testing.T) {
	calls, _ := fakeCDN(t, "")

	_, err := execute("upload", "remote", "https://example.com/a.png")
	require.NoError(t, err)

	_, err = execute("upload", "remote", "http://example.com/a.png", "--insecure")
	require.NoError(t, err)

	require.Len(t, *calls, 2)
	assert.Equal(t, "/push-remote", (*calls)[0].path)
	assert.Equal(t, "0", (*calls)[0].insecure)
	assert.Equal(t, "1", (*calls)[1].insecure)
}

func TestDeleteCommand(t *testing.T) {
	t.Run("confirmed", func(t *testing.T) {
		fakeCDN(t, `{"data":{"message":"The file was deleted successfully"}}`)

		out, err := execute("delete", "T", "E")
		require.NoError(t, err)
		assert.JSONEq(t, `{"file_token":"T","deleted":true}`, out)
	})

	t.Run("not confirmed", func(t *testing.T) {
		fakeCDN(t, `{"data":{"message":"Nothing to delete"}}`)

		out, err := execute("delete", "T", "E")
		assert.ErrorIs(t, err, errNotConfirmed)
		assert.JSONEq(t, `{"file_token":"T","deleted":false}`, out)
	})

	t.Run("cdn error", func(t *testing.T) {
		fakeCDN(t, `{"error":"bad edit key"}`)

		_, err := execute("delete", "T", "E")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad edit key")
	})
}

func TestMissingConfiguration(t *testing.T) {
	t.Setenv("CDN_ENDPOINT_URL", "")
	t.Setenv("CDN_API_TOKEN", "")

	_, err := execute("delete", "T", "E")
	assert.EqualError(t, err, "CDN_ENDPOINT_URL is not set")
}

func TestEnvFile(t *testing.T) {
	_, endpoint := fakeCDN(t, `{"data":{"message":"The file was deleted successfully"}}`)

	// godotenv does not override variables that are already set
	require.NoError(t, os.Unsetenv("CDN_ENDPOINT_URL"))
	require.NoError(t, os.Unsetenv("CDN_API_TOKEN"))

	envFile := filepath.Join(t.TempDir(), "cdn.env")
	require.NoError(t, os.WriteFile(envFile, []byte("CDN_ENDPOINT_URL="+endpoint+"\nCDN_API_TOKEN=tok\n"), 0o600))

	_, err := execute("--env-file", envFile, "delete", "T", "E")
	require.NoError(t, err)

	_, err = execute("--env-file", filepath.Join(t.TempDir(), "missing.env"), "delete", "T", "E")
	assert.Error(t, err)
}

func TestArgumentValidation(t *testing.T) {
	_, err := execute("delete", "only-token")
	assert.Error(t, err)

	_, err = execute("upload", "image")
	assert.Error(t, err)
}

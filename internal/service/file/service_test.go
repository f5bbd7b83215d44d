package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashwinyue/next-qbank/internal/config"
	"github.com/ashwinyue/next-qbank/internal/model"
	"github.com/ashwinyue/next-qbank/internal/repository"
	"github.com/ashwinyue/next-qbank/internal/testutil"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	repo := repository.NewRepositories(testutil.NewDB(t))
	svc, err := NewServiceFromConfig(context.Background(), repo, &config.StorageConfig{
		Type:      "local",
		BasePath:  t.TempDir(),
		URLPrefix: "/documents/",
	})
	require.NoError(t, err)
	return svc
}

// ========== 本地存储 ==========

func TestLocalStorage_ObjectKey(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir(), "/documents")
	require.NoError(t, err)

	tests := []struct {
		name       string
		req        SaveRequest
		wantPrefix string
		wantSuffix string
	}{
		{name: "with source", req: SaveRequest{FileName: "quiz.txt", SourceID: "src-1"}, wantPrefix: "src-1/", wantSuffix: ".txt"},
		{name: "unassigned", req: SaveRequest{FileName: "quiz.txt"}, wantPrefix: unassignedPrefix + "/", wantSuffix: ".txt"},
		{name: "extension from content type", req: SaveRequest{FileName: "scan", ContentType: "application/pdf"}, wantPrefix: unassignedPrefix + "/", wantSuffix: ".pdf"},
		{name: "unknown content type", req: SaveRequest{FileName: "blob"}, wantPrefix: unassignedPrefix + "/", wantSuffix: ".bin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Reader = strings.NewReader("abc")
			obj, err := storage.Save(context.Background(), &tt.req)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(obj.Path, tt.wantPrefix), obj.Path)
			assert.True(t, strings.HasSuffix(obj.Path, tt.wantSuffix), obj.Path)
			assert.EqualValues(t, 3, obj.Size)
		})
	}
}

func TestLocalStorage_RejectsEscapingPaths(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir(), "/documents")
	require.NoError(t, err)

	_, err = storage.Get(context.Background(), "../../etc/passwd")
	assert.Error(t, err)
	assert.Error(t, storage.Delete(context.Background(), "../outside.txt"))
	assert.NoError(t, storage.Delete(context.Background(), "missing/file.txt"))
}

// ========== 文档服务 ==========

func TestSaveDocument(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	content := "1. 다음 중 소수는?\n① 4 ② 6 ③ 7\n"

	doc, err := svc.SaveDocument(ctx, &SaveDocumentRequest{
		FileName:    "quiz.txt",
		ContentType: "text/plain",
		Reader:      strings.NewReader(content),
		SourceID:    "src-1",
	})
	require.NoError(t, err)

	sum := sha256.Sum256([]byte(content))
	assert.Equal(t, hex.EncodeToString(sum[:]), doc.Checksum)
	assert.EqualValues(t, len(content), doc.FileSize)
	assert.Equal(t, string(StorageTypeLocal), doc.StorageType)
	assert.Equal(t, model.DocumentStatusStored, doc.Status)

	_, reader, err := svc.OpenDocument(ctx, doc.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(reader)
	require.NoError(t, reader.Close())
	require.NoError(t, err)
	assert.Equal(t, content, string(data))

	info, err := svc.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "/documents/"+doc.FilePath, info.URL)
}

func TestMarkProcessed(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	doc, err := svc.SaveDocument(ctx, &SaveDocumentRequest{FileName: "a.pdf", ContentType: "application/pdf", Reader: strings.NewReader("%PDF")})
	require.NoError(t, err)

	require.NoError(t, svc.MarkProcessed(ctx, doc.ID, 0, "unsupported document type"))
	info, err := svc.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusFailed, info.Status)
	assert.Equal(t, "unsupported document type", info.ErrorMsg)

	require.NoError(t, svc.MarkProcessed(ctx, doc.ID, 3, ""))
	info, err = svc.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusParsed, info.Status)
	assert.Equal(t, 3, info.ProblemCount)
}

func TestDeleteDocument(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	doc, err := svc.SaveDocument(ctx, &SaveDocumentRequest{FileName: "quiz.txt", Reader: strings.NewReader("x")})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteDocument(ctx, doc.ID))

	_, err = svc.GetDocument(ctx, doc.ID)
	assert.True(t, repository.IsNotFound(err))
	assert.Error(t, svc.DeleteDocument(ctx, doc.ID))
}

func TestNewServiceFromConfig_Invalid(t *testing.T) {
	repo := repository.NewRepositories(testutil.NewDB(t))

	tests := []struct {
		name string
		cfg  config.StorageConfig
	}{
		{name: "unknown type", cfg: config.StorageConfig{Type: "s3"}},
		{name: "minio without credentials", cfg: config.StorageConfig{Type: "minio", Endpoint: "localhost:9000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewServiceFromConfig(context.Background(), repo, &tt.cfg)
			assert.Error(t, err)
		})
	}
}

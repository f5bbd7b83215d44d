package file

import (
	"context"
	"io"
)

// Storage 原始文档存储接口
type Storage interface {
	// Save 保存文档，返回存储位置和实际写入的字节数
	Save(ctx context.Context, req *SaveRequest) (*StoredObject, error)
	// Get 读取文档内容
	Get(ctx context.Context, filePath string) (io.ReadCloser, error)
	// Delete 删除文档
	Delete(ctx context.Context, filePath string) error
	// GetURL 获取文档的访问URL
	GetURL(filePath string) string
}

// SaveRequest 保存文档请求
type SaveRequest struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
	SourceID    string
}

// StoredObject 已保存的文档对象
type StoredObject struct {
	Path string
	Size int64
}

// StorageType 存储类型
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeMinIO StorageType = "minio"
)

// unassignedPrefix 未关联来源的文档目录
const unassignedPrefix = "unassigned"

// objectKey 生成存储路径: {sourceID}/{uuid}{ext}
func objectKey(sourceID, fileID, ext string) string {
	if sourceID == "" {
		sourceID = unassignedPrefix
	}
	return sourceID + "/" + fileID + ext
}

package models

import (
	"time"

	"godsendjoseph.dev/cdn-client/cdn"
)

// Asset kinds. The upload kinds match the CDN field names.
const (
	KindPDF    = cdn.FieldPDF
	KindImage  = cdn.FieldImage
	KindVideo  = cdn.FieldVideo
	KindFile   = cdn.FieldFile
	KindRemote = "remote"
)

// Asset is the gateway's record of one file uploaded to the CDN.
type Asset struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	Source    string     `json:"source"`
	FileToken string     `json:"file_token"`
	EditKey   string     `json:"-"`
	FileName  string     `json:"file_name"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// NewAsset builds a record for a file the CDN has just accepted.
func NewAsset(id, kind, source string, fileAsset cdn.FileAsset) *Asset {
	return &Asset{
		ID:        id,
		Kind:      kind,
		Source:    source,
		FileToken: fileAsset.FileToken(),
		EditKey:   fileAsset.EditKey(),
		FileName:  fileAsset.FileName(),
	}
}

func IsUploadKind(kind string) bool {
	switch kind {
	case KindPDF, KindImage, KindVideo, KindFile:
		return true
	default:
		return false
	}
}

package cdn

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Upload field names. Each one also selects the push-<field> action.
const (
	FieldPDF   = "pdf"
	FieldImage = "image"
	FieldVideo = "video"
	FieldFile  = "file"

	remoteField = "remote file"
)

// ErrMissingName is wrapped by the error UploadContent returns for an empty
// name.
var ErrMissingName = errors.New("file name is required")

func (c *Client) UploadPDF(ctx context.Context, filePath, name string) (FileAsset, error) {
	return c.UploadFile(ctx, filePath, name, FieldPDF)
}

func (c *Client) UploadImage(ctx context.Context, filePath, name string) (FileAsset, error) {
	return c.UploadFile(ctx, filePath, name, FieldImage)
}

func (c *Client) UploadVideo(ctx context.Context, filePath, name string) (FileAsset, error) {
	return c.UploadFile(ctx, filePath, name, FieldVideo)
}

// UploadFile reads the file at filePath and pushes it under fieldName
// ("file" when empty). The stored name defaults to the file's base name.
func (c *Client) UploadFile(ctx context.Context, filePath, name, fieldName string) (FileAsset, error) {
	if fieldName == "" {
		fieldName = FieldFile
	}

	if name == "" {
		name = filepath.Base(filePath)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return FileAsset{}, transportError("upload", fieldName, filePath,
			"Exception from CDN while uploading "+fieldName+": ", err)
	}

	return c.pushContent(ctx, content, name, fieldName, filePath)
}

// UploadContent pushes content that is already in memory. name is required
// as it becomes the multipart filename; without one no request is sent.
func (c *Client) UploadContent(ctx context.Context, content []byte, name, fieldName string) (FileAsset, error) {
	if fieldName == "" {
		fieldName = FieldFile
	}

	if strings.TrimSpace(name) == "" {
		return FileAsset{}, transportError("upload", fieldName, name,
			"Exception from CDN while uploading "+fieldName+": ", ErrMissingName)
	}

	return c.pushContent(ctx, content, name, fieldName, name)
}

func (c *Client) pushContent(ctx context.Context, content []byte, name, fieldName, originalRef string) (FileAsset, error) {
	response, err := c.requestAPI(ctx, http.MethodPost, "push-"+fieldName, requestParams{
		File: &filePart{
			Field:    fieldName,
			Filename: name,
			Content:  content,
		},
	})
	if err != nil {
		c.logger.Errorw("cdn upload failed", "field", fieldName, "target", originalRef, "error", err)
		return FileAsset{}, wrapTransport(err, "upload", fieldName, originalRef,
			"Exception from CDN while uploading "+fieldName+": ")
	}
	defer response.Body.Close()

	asset, err := parseFileAssetFromResponse(response, fieldName, originalRef)
	if err != nil {
		c.logger.Errorw("cdn upload rejected", "field", fieldName, "target", originalRef, "error", err)
		return FileAsset{}, err
	}

	c.logger.Infow("cdn upload succeeded", "field", fieldName, "fileToken", asset.FileToken(), "fileName", asset.FileName())

	return asset, nil
}

// UploadRemoteFile asks the CDN to fetch fileURL itself. With secure set to
// false the CDN skips TLS verification of the remote host.
func (c *Client) UploadRemoteFile(ctx context.Context, fileURL, fileName string, secure bool) (FileAsset, error) {
	insecure := "0"
	if !secure {
		insecure = "1"
	}

	form := url.Values{
		"remote":   {fileURL},
		"insecure": {insecure},
	}
	if fileName != "" {
		form.Set("name", fileName)
	}

	response, err := c.requestAPI(ctx, http.MethodPost, "push-remote", requestParams{Form: form})
	if err != nil {
		c.logger.Errorw("cdn remote upload failed", "url", fileURL, "error", err)
		return FileAsset{}, wrapTransport(err, "upload", remoteField, fileURL,
			"Exception from CDN while uploading "+remoteField+": "+fileURL+" - ")
	}
	defer response.Body.Close()

	asset, err := parseFileAssetFromResponse(response, remoteField, fileURL)
	if err != nil {
		c.logger.Errorw("cdn remote upload rejected", "url", fileURL, "error", err)
		return FileAsset{}, err
	}

	c.logger.Infow("cdn remote upload succeeded", "url", fileURL, "fileToken", asset.FileToken())

	return asset, nil
}

// wrapTransport adds operation context to a requestAPI failure. Errors that
// are already *Error keep their kind.
func wrapTransport(err error, op, field, target, prefix string) error {
	var cdnErr *Error
	if errors.As(err, &cdnErr) {
		return cdnErr
	}

	return transportError(op, field, target, prefix, err)
}

func contentTypeFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}

package cdn

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) DeleteImage(ctx context.Context, fileToken, editKey string) (bool, error) {
	return c.DeleteFile(ctx, fileToken, editKey)
}

// DeleteFile removes an uploaded file. It returns true only when the CDN
// confirms the deletion; a different acknowledgement message yields false.
func (c *Client) DeleteFile(ctx context.Context, fileToken, editKey string) (bool, error) {
	response, err := c.requestAPI(ctx, http.MethodGet, "delete-file", requestParams{
		Query: url.Values{
			"file_token": {fileToken},
			"edit_key":   {editKey},
		},
	})
	if err != nil {
		c.logger.Errorw("cdn delete failed", "fileToken", fileToken, "error", err)
		return false, wrapTransport(err, "delete", "", fileToken,
			"Exception from CDN while deleting file ("+fileToken+"): ")
	}
	defer response.Body.Close()

	deleted, err := parseDeleteResponse(response, fileToken)
	if err != nil {
		c.logger.Errorw("cdn delete rejected", "fileToken", fileToken, "error", err)
		return false, err
	}

	c.logger.Infow("cdn delete answered", "fileToken", fileToken, "deleted", deleted)

	return deleted, nil
}

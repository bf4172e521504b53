package cdn

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const deleteConfirmation = "The file was deleted successfully"

var validate = validator.New(validator.WithRequiredStructEnabled())

// responseFields is a decoded top-level JSON object, field name to raw value.
type responseFields map[string]json.RawMessage

// assetData is the "data" object of a successful upload.
type assetData struct {
	Token   string `json:"token" validate:"required"`
	EditKey string `json:"edit_key" validate:"required"`
	Name    string `json:"name" validate:"required"`
}

// deleteData is the "data" object of a delete acknowledgement.
type deleteData struct {
	Message string `json:"message" validate:"required"`
}

type responseContext struct {
	op      string
	field   string
	target  string
	message string
}

// parseResponse reads the body and decodes it as a non-empty JSON object.
func parseResponse(response *http.Response, rc responseContext) (responseFields, string, error) {
	if response == nil || response.Body == nil {
		return nil, "", protocolError(rc.op, rc.field, rc.target, rc.message, "", nil)
	}

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, "", protocolError(rc.op, rc.field, rc.target, rc.message, "", err)
	}

	body := string(raw)
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, body, protocolError(rc.op, rc.field, rc.target, rc.message, body, nil)
	}

	var fields responseFields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, body, protocolError(rc.op, rc.field, rc.target, rc.message, body, err)
	}

	if len(fields) == 0 {
		return nil, body, protocolError(rc.op, rc.field, rc.target, rc.message, body, nil)
	}

	return fields, body, nil
}

// parseFileAssetFromResponse turns an upload response into a FileAsset.
// originalRef is the local path or remote URL that was uploaded.
func parseFileAssetFromResponse(response *http.Response, fieldName, originalRef string) (FileAsset, error) {
	fields, body, err := parseResponse(response, responseContext{
		op:      "upload",
		field:   fieldName,
		target:  originalRef,
		message: fmt.Sprintf("Invalid response from CDN while uploading %s: %s", fieldName, originalRef),
	})
	if err != nil {
		return FileAsset{}, err
	}

	var data assetData
	if decodeData(fields, &data) {
		return newFileAsset(data.Token, data.EditKey, data.Name), nil
	}

	if message := fields.errorMessage(); message != "" {
		return FileAsset{}, applicationError("upload", fieldName, originalRef, body,
			fmt.Sprintf("An error occurred on CDN while uploading %s: %s", fieldName, message))
	}

	return FileAsset{}, applicationError("upload", fieldName, originalRef, body,
		fmt.Sprintf("Unknown error from CDN while uploading %s", fieldName))
}

// parseDeleteResponse reports whether the CDN confirmed the deletion.
func parseDeleteResponse(response *http.Response, fileToken string) (bool, error) {
	fields, body, err := parseResponse(response, responseContext{
		op:      "delete",
		target:  fileToken,
		message: fmt.Sprintf("Invalid response from CDN while deleting file (%s)", fileToken),
	})
	if err != nil {
		return false, err
	}

	var data deleteData
	if decodeData(fields, &data) {
		return data.Message == deleteConfirmation, nil
	}

	if message := fields.errorMessage(); message != "" {
		return false, applicationError("delete", "", fileToken, body,
			fmt.Sprintf("An error occurred on CDN while deleting file: %s", message))
	}

	return false, applicationError("delete", "", fileToken, body,
		"Unknown error from CDN while deleting file")
}

// decodeData decodes the "data" field into out and validates it. Absent
// fields, empty strings and values of the wrong JSON type all fail.
func decodeData(fields responseFields, out any) bool {
	raw, ok := fields["data"]
	if !ok {
		return false
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return false
	}

	return validate.Struct(out) == nil
}

// errorMessage returns the "error" field as text, or "" when it is absent
// or empty.
func (fields responseFields) errorMessage() string {
	raw, ok := fields["error"]
	if !ok {
		return ""
	}

	var message string
	if err := json.Unmarshal(raw, &message); err == nil {
		return message
	}

	switch text := string(bytes.TrimSpace(raw)); text {
	case "", "null", "false", "0", "{}", "[]":
		return ""
	default:
		return text
	}
}

package main

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

var Validate *validator.Validate

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	// report failures under the form field name
	Validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
}

func writeJSON(writer http.ResponseWriter, status int, message string, data any) error {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)

	jR := map[string]any{
		"status":  status,
		"success": status < 399,
		"message": message,
		"data":    data,
	}

	return json.NewEncoder(writer).Encode(jR)
}

func writeJSONError(writer http.ResponseWriter, status int, message string, errorsMap map[string]string) error {
	if len(errorsMap) == 0 {
		return writeJSON(writer, status, message, nil)
	}
	return writeJSON(writer, status, message, map[string]any{"errors": errorsMap})
}

// readFormData parses a multipart or url-encoded body of at most maxBytes
// and decodes its values into data using the "form" struct tags.
func readFormData(writer http.ResponseWriter, request *http.Request, maxBytes int64, data any) (map[string][]*multipart.FileHeader, error) {
	request.Body = http.MaxBytesReader(writer, request.Body, maxBytes)

	files := make(map[string][]*multipart.FileHeader)

	// First, try to parse as a multipart form (for file uploads)
	if err := request.ParseMultipartForm(maxBytes); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			return nil, err
		}
		// If not multipart, try as a regular form
		if err := request.ParseForm(); err != nil {
			return nil, err
		}
	} else {
		files = request.MultipartForm.File
	}

	decoderConfig := &mapstructure.DecoderConfig{
		Result:           data,
		TagName:          "form",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	}

	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return nil, err
	}

	values := make(map[string]interface{})
	for key, val := range request.Form {
		if len(val) == 1 {
			values[key] = val[0]
		} else {
			values[key] = val
		}
	}

	if err := decoder.Decode(values); err != nil {
		return nil, err
	}

	return files, nil
}

// validatePayload returns nil when payload is valid, else the failed rule
// per form field.
func validatePayload(payload any) map[string]string {
	err := Validate.Struct(payload)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return map[string]string{"payload": err.Error()}
	}

	errorsMap := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		errorsMap[fieldErr.Field()] = fieldErr.Tag()
	}

	return errorsMap
}

package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"godsendjoseph.dev/cdn-client/internal/models"
)

type uploadAssetPayload struct {
	Name      string        `form:"name" validate:"max=255"`
	ExpiresIn time.Duration `form:"expires_in" validate:"gte=0"`
}

type uploadRemoteAssetPayload struct {
	URL       string        `form:"url" validate:"required,url"`
	Name      string        `form:"name" validate:"max=255"`
	Secure    bool          `form:"secure"`
	ExpiresIn time.Duration `form:"expires_in" validate:"gte=0"`
}

func (app *application) uploadAssetHandler(writer http.ResponseWriter, request *http.Request) {
	kind := chi.URLParam(request, "kind")
	if !models.IsUploadKind(kind) {
		app.badRequestResponse(writer, request, fmt.Errorf("unknown asset kind %q", kind), map[string]string{"kind": "oneof"})
		return
	}

	var payload uploadAssetPayload

	files, err := readFormData(writer, request, app.config.maxUploadBytes, &payload)
	if err != nil {
		app.formDataErrorResponse(writer, request, err)
		return
	}

	if errorsMap := validatePayload(payload); errorsMap != nil {
		app.badRequestResponse(writer, request, errors.New("validation failed"), errorsMap)
		return
	}

	fileHeaders := files["file"]
	if len(fileHeaders) == 0 {
		app.badRequestResponse(writer, request, errors.New("validation failed"), map[string]string{"file": "required"})
		return
	}
	fileHeader := fileHeaders[0]

	file, err := fileHeader.Open()
	if err != nil {
		app.internalServerError(writer, request, err)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		app.internalServerError(writer, request, err)
		return
	}

	name := payload.Name
	if name == "" {
		name = fileHeader.Filename
	}

	asset, err := app.assets.Upload(request.Context(), kind, content, name, payload.ExpiresIn)
	if err != nil {
		app.assetErrorResponse(writer, request, err)
		return
	}

	if err := writeJSON(writer, http.StatusCreated, "Asset uploaded", asset); err != nil {
		app.internalServerError(writer, request, err)
		return
	}
}

func (app *application) uploadRemoteAssetHandler(writer http.ResponseWriter, request *http.Request) {
	payload := uploadRemoteAssetPayload{Secure: true}

	if _, err := readFormData(writer, request, app.config.maxUploadBytes, &payload); err != nil {
		app.formDataErrorResponse(writer, request, err)
		return
	}

	if errorsMap := validatePayload(payload); errorsMap != nil {
		app.badRequestResponse(writer, request, errors.New("validation failed"), errorsMap)
		return
	}

	asset, err := app.assets.UploadRemote(request.Context(), payload.URL, payload.Name, payload.Secure, payload.ExpiresIn)
	if err != nil {
		app.assetErrorResponse(writer, request, err)
		return
	}

	if err := writeJSON(writer, http.StatusCreated, "Remote asset uploaded", asset); err != nil {
		app.internalServerError(writer, request, err)
		return
	}
}

func (app *application) getAssetHandler(writer http.ResponseWriter, request *http.Request) {
	assetID := chi.URLParam(request, "assetID")

	asset, err := app.assets.Get(request.Context(), assetID)
	if err != nil {
		app.assetErrorResponse(writer, request, err)
		return
	}

	if err := writeJSON(writer, http.StatusOK, "Asset retrieved", asset); err != nil {
		app.internalServerError(writer, request, err)
		return
	}
}

func (app *application) deleteAssetHandler(writer http.ResponseWriter, request *http.Request) {
	assetID := chi.URLParam(request, "assetID")

	asset, err := app.assets.Delete(request.Context(), assetID)
	if err != nil {
		app.assetErrorResponse(writer, request, err)
		return
	}

	if err := writeJSON(writer, http.StatusOK, "Asset deleted", asset); err != nil {
		app.internalServerError(writer, request, err)
		return
	}
}

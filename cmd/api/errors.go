package main

import (
	"errors"
	"fmt"
	"net/http"

	"godsendjoseph.dev/cdn-client/cdn"
	"godsendjoseph.dev/cdn-client/internal/assets"
	"godsendjoseph.dev/cdn-client/internal/store"
)

func (app *application) internalServerError(writer http.ResponseWriter, request *http.Request, err error) {
	app.logger.Errorw("internal server error", "method", request.Method, "path", request.URL.Path, "error", err.Error())
	if notifyErr := app.slackNotifier.NotifyServerError(err, request); notifyErr != nil {
		app.logger.Warnw("failed to notify slack", "error", notifyErr)
	}
	writeJSONError(writer, http.StatusInternalServerError, "the server encountered a problem and could not process your request", nil)
}

func (app *application) badRequestResponse(writer http.ResponseWriter, request *http.Request, err error, errorsMap map[string]string) {
	app.logger.Warnw("bad request error", "method", request.Method, "path", request.URL.Path, "error", err.Error(), "errors", errorsMap)
	writeJSONError(writer, http.StatusBadRequest, err.Error(), errorsMap)
}

func (app *application) payloadTooLargeResponse(writer http.ResponseWriter, request *http.Request, limit int64) {
	app.logger.Warnw("payload too large error", "method", request.Method, "path", request.URL.Path, "limit", limit)
	writeJSONError(writer, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body must not be larger than %d bytes", limit), nil)
}

// formDataErrorResponse reports a body readFormData could not parse.
func (app *application) formDataErrorResponse(writer http.ResponseWriter, request *http.Request, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		app.payloadTooLargeResponse(writer, request, maxBytesErr.Limit)
		return
	}
	app.badRequestResponse(writer, request, err, nil)
}

func (app *application) methodNotAllowedResponse(writer http.ResponseWriter, request *http.Request, err error) {
	app.logger.Warnw("method not allowed error", "method", request.Method, "path", request.URL.Path, "error", err.Error())
	writeJSONError(writer, http.StatusMethodNotAllowed, "method not allowed", nil)
}

func (app *application) notFoundResponse(writer http.ResponseWriter, request *http.Request, err error) {
	app.logger.Warnw("not found error", "method", request.Method, "path", request.URL.Path, "error", err.Error())
	writeJSONError(writer, http.StatusNotFound, "not found", nil)
}

func (app *application) unauthorizedErrorResponse(writer http.ResponseWriter, request *http.Request, err error) {
	app.logger.Warnw("unauthorized error", "method", request.Method, "path", request.URL.Path, "error", err.Error())
	writer.Header().Set("WWW-Authenticate", `Bearer realm="cdn-gateway"`)
	writeJSONError(writer, http.StatusUnauthorized, "unauthorized", nil)
}

func (app *application) rateLimitExceededResponse(writer http.ResponseWriter, request *http.Request, retryAfter string) {
	app.logger.Warnw("rate limit error", "method", request.Method, "path", request.URL.Path, "error", retryAfter)
	writer.Header().Set("Retry-After", retryAfter)
	writeJSONError(writer, http.StatusTooManyRequests, "rate limit exceeded", nil)
}

// cdnErrorResponse maps a failed CDN call to a gateway status. The CDN
// refusing a request is the client's problem (422); an unreachable or
// misbehaving CDN is a bad gateway (502).
func (app *application) cdnErrorResponse(writer http.ResponseWriter, request *http.Request, err error) {
	switch {
	case errors.Is(err, cdn.ErrApplication):
		app.logger.Warnw("cdn rejected request", "method", request.Method, "path", request.URL.Path, "error", err.Error())
		writeJSONError(writer, http.StatusUnprocessableEntity, err.Error(), nil)
	case errors.Is(err, cdn.ErrTransport), errors.Is(err, cdn.ErrProtocol):
		app.logger.Errorw("cdn unavailable", "method", request.Method, "path", request.URL.Path, "error", err.Error())
		writeJSONError(writer, http.StatusBadGateway, err.Error(), nil)
	default:
		app.internalServerError(writer, request, err)
	}
}

// assetErrorResponse dispatches errors returned by the asset service.
func (app *application) assetErrorResponse(writer http.ResponseWriter, request *http.Request, err error) {
	var cdnErr *cdn.Error

	switch {
	case errors.Is(err, store.ErrNotFound):
		app.notFoundResponse(writer, request, err)
	case errors.Is(err, assets.ErrDeleteNotConfirmed):
		app.logger.Warnw("cdn did not confirm deletion", "path", request.URL.Path)
		writeJSONError(writer, http.StatusBadGateway, err.Error(), nil)
	case errors.As(err, &cdnErr):
		app.cdnErrorResponse(writer, request, err)
	default:
		app.internalServerError(writer, request, err)
	}
}

package services

import (
	"errors"
	"fmt"
	"net/http"

	"lyricloud/models"
)

// ValidationError means the request was rejected before any lookup.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NotFoundError means the provider has no matching song or no lyric text.
type NotFoundError struct {
	Query models.SongQuery
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no lyrics found for %q by %q", e.Query.Title, e.Query.Artist)
}

// FetchError wraps a network, HTTP or parse failure while talking to a
// lyrics provider.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// EmptyInputError means there was no text left to visualize.
type EmptyInputError struct {
	Reason string
}

func (e *EmptyInputError) Error() string {
	if e.Reason == "" {
		return "nothing to render"
	}
	return "nothing to render: " + e.Reason
}

const (
	MsgEnterTitle = "Please enter a song title."
	MsgNotFound   = "Song not found. Please check the title."
	MsgGeneric    = "Something went wrong while building the word cloud."
)

// UserMessage converts a pipeline error into the text shown to the user.
func UserMessage(err error) string {
	var (
		vErr *ValidationError
		nErr *NotFoundError
		fErr *FetchError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &vErr):
		return MsgEnterTitle
	case errors.As(err, &nErr):
		return MsgNotFound
	case errors.As(err, &fErr):
		return "Error fetching lyrics: " + fErr.Error()
	default:
		return MsgGeneric
	}
}

// HTTPStatus picks the response code for a pipeline error.
func HTTPStatus(err error) int {
	var (
		vErr *ValidationError
		nErr *NotFoundError
		fErr *FetchError
		eErr *EmptyInputError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &vErr):
		return http.StatusBadRequest
	case errors.As(err, &nErr):
		return http.StatusNotFound
	case errors.As(err, &fErr):
		return http.StatusBadGateway
	case errors.As(err, &eErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

package common

import (
	"errors"
	"log"
	"net/http"

	"github.com/indieinfra/capture/server/resp"
	"github.com/indieinfra/capture/server/util"
)

var (
	ErrMissingInput  = errors.New("missing input")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUploadFailed  = errors.New("upload failed")
	ErrPersistFailed = errors.New("persist failed")
)

// LogAndWriteError logs an error with request context and maps known conditions to client responses.
func LogAndWriteError(w http.ResponseWriter, r *http.Request, op string, err error) {
	rl := util.FromContext(r.Context())
	if rl == nil {
		rl = util.WithRequest(log.Default(), r, "")
	}
	rl.Errorf("capture %s failed: %v", op, err)

	switch {
	case errors.Is(err, ErrMissingInput), errors.Is(err, ErrInvalidInput):
		resp.WriteInvalidRequest(w, describe(err))
	case errors.Is(err, util.ErrRequestTooLarge):
		resp.WriteRequestTooLarge(w, describe(err))
	case errors.Is(err, ErrUploadFailed):
		resp.WriteUploadFailed(w, "the media host rejected the upload")
	case errors.Is(err, ErrPersistFailed):
		resp.WritePersistFailed(w, "the upload could not be recorded")
	default:
		resp.WriteInternalServerError(w, op+" failed")
	}
}

// describe returns the client-facing part of err, the text wrapped around the sentinel.
func describe(err error) string {
	var d interface{ Description() string }
	if errors.As(err, &d) {
		return d.Description()
	}

	return err.Error()
}

// ClientError carries a description that is safe to show to the caller.
type ClientError struct {
	Kind error
	Desc string
}

func (e *ClientError) Error() string       { return e.Kind.Error() + ": " + e.Desc }
func (e *ClientError) Unwrap() error       { return e.Kind }
func (e *ClientError) Description() string { return e.Desc }

// Invalid builds an ErrInvalidInput with a client-facing description.
func Invalid(desc string) error {
	return &ClientError{Kind: ErrInvalidInput, Desc: desc}
}

// Missing builds an ErrMissingInput with a client-facing description.
func Missing(desc string) error {
	return &ClientError{Kind: ErrMissingInput, Desc: desc}
}

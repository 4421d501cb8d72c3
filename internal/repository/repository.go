package repository

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Fannysbth/kel1paw/internal/errs"
)

// upstream wraps an unexpected store failure so handlers map it to 502
// after the single retry in database.Run has already been spent.
func upstream(op string, err error) error {
	return errs.Upstream("failed to "+op, err)
}

// notFound translates mongo.ErrNoDocuments into the NotFound sentinel and
// everything else into an upstream failure.
func notFound(op, message string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return errs.NotFound(message)
	}
	return upstream(op, err)
}

package handlers

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// pathID parses the named path segment as an ObjectID.
func pathID(r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(r.PathValue(name))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

package middleware

import (
	"encoding/json"
	"net/http"

	"ticketing-front/pkg/apierror"
)

func writeJSONError(w http.ResponseWriter, err *apierror.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	_ = json.NewEncoder(w).Encode(err)
}

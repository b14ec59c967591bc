package rumpus

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("rumpus api status %d: %s", e.Status, e.Body)
}

// IsPermanent: errores que no vale la pena reintentar.
func IsPermanent(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == 400 || apiErr.Status == 401 || apiErr.Status == 403
	}
	return false
}

package composables

import (
	"net/http"

	"github.com/go-playground/form"
)

var formDecoder = form.NewDecoder()

// UseForm decodes the request form into v. A multipart body must be parsed
// by the caller first so its size limit applies.
func UseForm[T comparable](v T, r *http.Request) (T, error) {
	if r.Form == nil {
		if err := r.ParseForm(); err != nil {
			return v, err
		}
	}
	return v, formDecoder.Decode(v, r.Form)
}

func UseQuery[T comparable](v T, r *http.Request) (T, error) {
	return v, formDecoder.Decode(v, r.URL.Query())
}

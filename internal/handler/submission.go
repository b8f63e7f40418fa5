package handler

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/academy-events/internal/form"
	"github.com/Shivanand-hulikatti/academy-events/internal/model"
)

// maxMultipartMemory is the in-memory budget for multipart submissions;
// larger parts spill to temporary files.
const maxMultipartMemory = 10 << 20

// parseSubmission reads a registration submission as a JSON object,
// multipart form or urlencoded form. Uploaded files are not stored; each
// becomes an opaque reference.
func parseSubmission(w http.ResponseWriter, r *http.Request) (form.Input, error) {
	in := form.Input{Values: map[string][]string{}, Files: map[string]model.FileRef{}}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return in, fmt.Errorf("parse multipart form: %w", err)
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()
		for k, vs := range r.MultipartForm.Value {
			in.Values[k] = vs
		}
		for k, headers := range r.MultipartForm.File {
			if len(headers) == 0 {
				continue
			}
			fh := headers[0]
			in.Files[k] = model.FileRef{Ref: uuid.NewString(), Filename: fh.Filename, Size: fh.Size}
		}
		return in, nil

	case "application/x-www-form-urlencoded":
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		if err := r.ParseForm(); err != nil {
			return in, fmt.Errorf("parse form: %w", err)
		}
		for k, vs := range r.PostForm {
			in.Values[k] = vs
		}
		return in, nil
	}

	var raw map[string]any
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return in, fmt.Errorf("invalid request body: %w", err)
	}
	for k, v := range raw {
		if vs := jsonValues(v); len(vs) > 0 {
			in.Values[k] = vs
		}
	}
	return in, nil
}

// jsonValues flattens a decoded JSON value to the text form values a browser
// would send. Null and nested objects carry no value.
func jsonValues(v any) []string {
	switch v := v.(type) {
	case string:
		return []string{v}
	case json.Number:
		return []string{v.String()}
	case bool:
		return []string{strconv.FormatBool(v)}
	case []any:
		var out []string
		for _, item := range v {
			out = append(out, jsonValues(item)...)
		}
		return out
	}
	return nil
}

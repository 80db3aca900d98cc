package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"reflect"
	"sort"

	"github.com/gorilla/schema"
)

// Static errors for err113 compliance.
var (
	ErrUnsupportedFormData = errors.New("unsupported form data type")
)

var formEncoder = newFormEncoder()

func newFormEncoder() *schema.Encoder {
	encoder := schema.NewEncoder()
	encoder.SetAliasTag("json")

	return encoder
}

// encodeBody renders the request payload. A nil payload yields a nil body.
func encodeBody(req *Request) ([]byte, string, error) {
	if req.JSON != nil {
		data, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal JSON body: %w", err)
		}

		return data, "application/json", nil
	}

	if req.FormData != nil {
		return encodeMultipart(req.FormData)
	}

	return nil, "", nil
}

// formPart is one field of a multipart body. Reader is set for file parts.
type formPart struct {
	name   string
	value  string
	reader io.Reader
}

func encodeMultipart(data interface{}) ([]byte, string, error) {
	parts, err := formParts(data)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)

	for _, part := range parts {
		if part.reader == nil {
			err = writer.WriteField(part.name, part.value)
			if err != nil {
				return nil, "", fmt.Errorf("failed to write form field %q: %w", part.name, err)
			}

			continue
		}

		fileWriter, err := writer.CreateFormFile(part.name, part.name)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form file %q: %w", part.name, err)
		}

		_, err = io.Copy(fileWriter, part.reader)
		if err != nil {
			return nil, "", fmt.Errorf("failed to copy form file %q: %w", part.name, err)
		}
	}

	err = writer.Close()
	if err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}

// formParts flattens the supported payload shapes into ordered parts.
func formParts(data interface{}) ([]formPart, error) {
	switch typed := data.(type) {
	case url.Values:
		return valuesParts(typed), nil
	case map[string][]string:
		return valuesParts(typed), nil
	case map[string]string:
		parts := make([]formPart, 0, len(typed))
		for _, key := range sortedKeys(typed) {
			parts = append(parts, formPart{name: key, value: typed[key]})
		}

		return parts, nil
	case map[string]interface{}:
		parts := make([]formPart, 0, len(typed))
		for _, key := range sortedKeys(typed) {
			parts = append(parts, anyPart(key, typed[key]))
		}

		return parts, nil
	}

	value := reflect.ValueOf(data)
	if value.Kind() == reflect.Pointer {
		value = value.Elem()
	}

	if value.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedFormData, data)
	}

	values := map[string][]string{}

	err := formEncoder.Encode(value.Interface(), values)
	if err != nil {
		return nil, fmt.Errorf("failed to encode form data: %w", err)
	}

	return valuesParts(values), nil
}

func valuesParts(values map[string][]string) []formPart {
	parts := make([]formPart, 0, len(values))

	for _, key := range sortedKeys(values) {
		for _, value := range values[key] {
			parts = append(parts, formPart{name: key, value: value})
		}
	}

	return parts
}

func anyPart(name string, value interface{}) formPart {
	switch typed := value.(type) {
	case string:
		return formPart{name: name, value: typed}
	case []byte:
		return formPart{name: name, reader: bytes.NewReader(typed)}
	case io.Reader:
		return formPart{name: name, reader: typed}
	case fmt.Stringer:
		return formPart{name: name, value: typed.String()}
	default:
		return formPart{name: name, value: fmt.Sprint(typed)}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

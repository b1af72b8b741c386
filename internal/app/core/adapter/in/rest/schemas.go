package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// 金額可用 JSON number 或字串，精度由 domain.ParseMoney 檢查
const registerSchema = `{
  "type": "object",
  "required": ["fullName", "email", "phone", "password", "initialDeposit"],
  "properties": {
    "fullName": {"type": "string", "minLength": 1, "maxLength": 255},
    "email": {"type": "string", "minLength": 3, "maxLength": 255},
    "phone": {"type": "string", "minLength": 1, "maxLength": 32},
    "password": {"type": "string", "minLength": 1, "maxLength": 72},
    "initialDeposit": {"type": ["number", "string"]}
  }
}`

const loginSchema = `{
  "type": "object",
  "required": ["accountNumber", "password"],
  "properties": {
    "accountNumber": {"type": "string", "minLength": 1, "maxLength": 20},
    "password": {"type": "string", "minLength": 1, "maxLength": 72}
  }
}`

const transactionSchema = `{
  "type": "object",
  "required": ["accountNumber", "type", "amount"],
  "properties": {
    "accountNumber": {"type": "string", "minLength": 1, "maxLength": 20},
    "type": {"type": "string"},
    "amount": {"type": ["number", "string"]},
    "description": {"type": "string", "maxLength": 1024}
  }
}`

// schemaValidator 以 JSON Schema 檢查請求 body
type schemaValidator struct {
	schema *jsonschema.Schema
}

func newSchemaValidator(name, schemaJSON string) (*schemaValidator, error) {
	compiler := jsonschema.NewCompiler()
	url := name + ".json"
	if err := compiler.AddResource(url, strings.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, err
	}
	return &schemaValidator{schema: schema}, nil
}

// Middleware 驗證通過後把 body 還原給下一層
func (v *schemaValidator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil {
			writeError(w, r, http.StatusBadRequest, "invalid_request", "request body is required")
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				writeError(w, r, http.StatusRequestEntityTooLarge, "payload_too_large", "")
				return
			}
			writeError(w, r, http.StatusBadRequest, "invalid_request", "")
			return
		}
		_ = r.Body.Close()

		var payload any
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&payload); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid_json", "")
			return
		}
		if err := v.schema.Validate(payload); err != nil {
			writeError(w, r, http.StatusBadRequest, "validation_error", validationMessage(err))
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

// validationMessage 取最底層的錯誤描述
func validationMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	if ve.InstanceLocation == "" {
		return ve.Message
	}
	return ve.InstanceLocation + ": " + ve.Message
}

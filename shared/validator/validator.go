package validator

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"reflect"
	"resort/shared/base64"
	"resort/shared/constant"
	"resort/shared/failure"
	"slices"
	"strconv"
	"strings"

	val "github.com/go-playground/validator/v10"
)

const bytesPerMB = 1 << 20

var validate *val.Validate

// fileContentType reads the declared type of an uploaded file or a base64 data URI.
func fileContentType(field reflect.Value) string {
	switch value := field.Interface().(type) {
	case multipart.FileHeader:
		return value.Header.Get(constant.RequestHeaderContentType)
	case string:
		return base64.GetContentType(value)
	default:
		return ""
	}
}

func fileSize(field reflect.Value) int64 {
	switch value := field.Interface().(type) {
	case multipart.FileHeader:
		return value.Size
	case string:
		uri, _ := base64.Parse(value)

		return uri.DecodedSize()
	default:
		return 0
	}
}

func validateMimetypes(fl val.FieldLevel) bool {
	contentType := fileContentType(fl.Field())
	if contentType == "" {
		return false
	}

	return slices.Contains(strings.Fields(fl.Param()), contentType)
}

// validateMaxFileSize takes its limit in megabytes.
func validateMaxFileSize(fl val.FieldLevel) bool {
	maxSizeMB, err := strconv.ParseFloat(fl.Param(), 64)
	if err != nil {
		return false
	}

	return float64(fileSize(fl.Field())) <= maxSizeMB*bytesPerMB
}

func jsonName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")

	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	default:
		return name
	}
}

func init() {
	validate = val.New(val.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonName)

	for tag, fn := range map[string]val.Func{
		"mimetypes":   validateMimetypes,
		"maxfilesize": validateMaxFileSize,
	} {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
}

// Validate decodes a JSON body into data and validates it. Decode and rule
// failures are both reported as bad requests.
func Validate[T any](r io.Reader, data *T) error {
	if err := json.NewDecoder(r).Decode(data); err != nil {
		return failure.BadRequest(fmt.Errorf("failed to decode request body: %w", err)) //nolint:wrapcheck
	}

	return ValidateStruct(data)
}

func ValidateStruct[T any](data *T) error {
	if err := validate.Struct(data); err != nil {
		return failure.BadRequestFromString(message(err)) //nolint:wrapcheck
	}

	return nil
}

func ValidateVar(field any, tag string) error {
	if err := validate.Var(field, tag); err != nil {
		return failure.BadRequestFromString(message(err)) //nolint:wrapcheck
	}

	return nil
}

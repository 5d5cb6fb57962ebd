package utils

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
)

// check if id exists, return RecordNotFound error otherwise
func ValidateResourceId[T any](ctx context.Context, id interface{}) error {

	count, err := ResourceCountWhere[T](ctx, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}

	return nil
}

// check uniqueness of a column value, excluding the row being updated (id > 0)
func ValidateUnique[T any](ctx context.Context, column string, value interface{}, id int) error {

	count, err := ResourceCountWhere[T](ctx, column+" = ? AND id != ?", value, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New(column + " already exists")
	}

	return nil
}

func ProcessValidationErrors(err error) map[string]string {
	errorResponse := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errorResponse["error"] = err.Error()
		return errorResponse
	}

	for _, fieldErr := range validationErrors {
		errorResponse[fieldErr.Field()] = "failed validation on " + fieldErr.Tag()
	}
	return errorResponse
}

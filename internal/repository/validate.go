package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate plays the role of the document schema: every write goes through it.
var validate = validator.New()

// ValidationError reports which fields of a document failed the schema.
type ValidationError struct {
	Fields []string
	err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s", strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error { return e.err }

func validateDoc(doc any) error {
	err := validate.Struct(doc)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Namespace()+":"+fe.Tag())
	}
	return &ValidationError{Fields: fields, err: err}
}

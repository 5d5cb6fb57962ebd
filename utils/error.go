package utils

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

var ErrorRecordNotFound = errors.New("record not found")

// IsDuplicateEntry reports whether a write was rejected by a MySQL unique
// index (error 1062). Uniqueness is checked up front, but a concurrent
// write can still lose the race to the index.
func IsDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// StepError marks a failure inside a multi-step workflow. The step name is
// surfaced to the user so a partially-applied sequence can be reconciled by
// hand; nothing is rolled back automatically.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func NewStepError(step string, err error) *StepError {
	return &StepError{Step: step, Err: err}
}

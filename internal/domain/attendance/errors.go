package attendance

import (
	"errors"
	"fmt"
)

// ErrNegativeHours indicates a day whose punch-out precedes its punch-in.
var ErrNegativeHours = errors.New("negative hours worked")

// DataQualityError marks a failure caused by corrupted source data rather
// than a transient fault, so callers can surface it distinctly.
type DataQualityError struct {
	OfficerID string
	Date      string
	Err       error
}

func (e *DataQualityError) Error() string {
	if e.OfficerID != "" {
		return fmt.Sprintf("data quality error for officer %s on %s: %v", e.OfficerID, e.Date, e.Err)
	}
	return fmt.Sprintf("data quality error on %s: %v", e.Date, e.Err)
}

func (e *DataQualityError) Unwrap() error { return e.Err }

// IsDataQuality reports whether err is (or wraps) a DataQualityError.
func IsDataQuality(err error) bool {
	var dq *DataQualityError
	return errors.As(err, &dq)
}

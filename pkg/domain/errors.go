package domain

import "errors"

// ErrReportNotFound is returned when a report ID cannot be found in a collector store.
var ErrReportNotFound = errors.New("report not found")

// ErrInvalidReport is returned when a received report is missing its type or carries an unknown one.
var ErrInvalidReport = errors.New("invalid report")

package batch

import (
	"context"
	"errors"

	"ioimpact/internal/codes"
	"ioimpact/internal/coeff"
	"ioimpact/internal/impact"
	"ioimpact/internal/linkage"
)

// Error kinds recorded on ERROR rows.
const (
	KindUnknownCode             = "UnknownCode"
	KindUnknownSector           = "UnknownSector"
	KindUnknownCoefficientType  = "UnknownCoefficientType"
	KindIncompatibleCoefficient = "IncompatibleCoefficient"
	KindDimensionMismatch       = "DimensionMismatch"
	KindInvalidAmount           = "InvalidAmount"
	KindInvalidThreshold        = "InvalidThreshold"
	KindCanceled                = "Canceled"
	KindInternal                = "Internal"
)

// ErrorKind maps an error to the kind string written on ERROR rows.
func ErrorKind(err error) string {
	var (
		uce *codes.UnknownCodeError
		use *coeff.UnknownSectorError
		ute *coeff.UnknownCoefficientTypeError
		ice *coeff.IncompatibleCoefficientError
		dme *coeff.DimensionMismatchError
		iae *impact.InvalidAmountError
		ite *linkage.InvalidThresholdError
		nte *NoTablesError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &iae):
		return KindInvalidAmount
	case errors.As(err, &ice):
		return KindIncompatibleCoefficient
	case errors.As(err, &ute), errors.As(err, &nte):
		return KindUnknownCoefficientType
	case errors.As(err, &use):
		return KindUnknownSector
	case errors.As(err, &uce):
		return KindUnknownCode
	case errors.As(err, &dme):
		return KindDimensionMismatch
	case errors.As(err, &ite):
		return KindInvalidThreshold
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindInternal
	}
}

// errorRow records a failed cell.
func errorRow(c Cell, err error) Row {
	return Row{
		ScenarioID:      c.Change.ScenarioID,
		Year:            c.Change.Year,
		DataSource:      c.Change.Source,
		SourceSector:    c.Change.SectorCode,
		CoefficientType: c.TypeID,
		Amount:          c.Change.Amount,
		Status:          StatusError,
		ErrorKind:       ErrorKind(err),
		Message:         err.Error(),
	}
}

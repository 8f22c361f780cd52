package printer

import "errors"

// Domain errors for the printer package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, printer.ErrPrinterNotFound) {
//	    // handle not found case
//	}
var (
	// ErrPrinterNotFound is returned when a printer ID does not exist.
	ErrPrinterNotFound = errors.New("printer: not found")

	// ErrPrinterExists is returned when creating a printer with an ID that already exists.
	ErrPrinterExists = errors.New("printer: already exists")

	// ErrInvalidPrinter is returned when printer validation fails.
	ErrInvalidPrinter = errors.New("printer: invalid")

	// ErrInvalidName is returned when a printer name is empty or too long.
	ErrInvalidName = errors.New("printer: invalid name")

	// ErrInvalidAddress is returned when a printer address is empty.
	ErrInvalidAddress = errors.New("printer: invalid address")
)

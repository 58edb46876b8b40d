package exporter

import (
	"errors"
	"io/fs"
	"net"
	"net/url"

	"github.com/wdiazux/harvest-sheet/config"
	"github.com/wdiazux/harvest-sheet/harvest"
	"github.com/wdiazux/harvest-sheet/sheets"
	"github.com/wdiazux/harvest-sheet/timesheet"
)

// Kind names an error class for the end-of-run summary.
type Kind string

const (
	KindConfig     Kind = "configuration"
	KindNetwork    Kind = "network"
	KindAPI        Kind = "api"
	KindValidation Kind = "validation"
	KindIO         Kind = "io"
	KindUpload     Kind = "upload"
	KindUnknown    Kind = "unknown"
)

// Classify maps an error to its taxonomy kind.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var configErr *config.ConfigError
	if errors.As(err, &configErr) {
		return KindConfig
	}
	var validationErr *timesheet.ValidationError
	if errors.As(err, &validationErr) {
		return KindValidation
	}
	var apiErr *harvest.APIError
	if errors.As(err, &apiErr) {
		return KindAPI
	}
	var uploadErr *sheets.UploadError
	if errors.As(err, &uploadErr) {
		return KindUpload
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return KindNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return KindIO
	}

	return KindUnknown
}

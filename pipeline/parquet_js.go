//go:build js

package pipeline

import "errors"

var errParquetUnavailable = errors.New("parquet output is not available in the browser build; use csv")

func marshalPMCParquet([]pmcRow) ([]byte, error) {
	return nil, errParquetUnavailable
}

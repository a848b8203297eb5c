package metrics

import "github.com/VictoriaMetrics/metrics"

// used http statuses are limited (4) so plain counters are cheaper than getOrCreate
var (
	statusOK                  = metrics.NewCounter(`http_requests_total{status="200"}`)
	statusBadRequest          = metrics.NewCounter(`http_requests_total{status="400"}`)
	statusNotFound            = metrics.NewCounter(`http_requests_total{status="404"}`)
	statusInternalServerError = metrics.NewCounter(`http_requests_total{status="500"}`)
)

func StatusOKInc()                  { statusOK.Inc() }
func StatusBadRequestInc()          { statusBadRequest.Inc() }
func StatusNotFoundInc()            { statusNotFound.Inc() }
func StatusInternalServerErrorInc() { statusInternalServerError.Inc() }

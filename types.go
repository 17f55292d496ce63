package psicash

import (
	"github.com/dmitrijs2005/psicash/internal/diagnostics"
	"github.com/dmitrijs2005/psicash/internal/logging"
	"github.com/dmitrijs2005/psicash/internal/models"
)

type (
	Purchase       = models.Purchase
	PurchasePrice  = models.PurchasePrice
	AuthTokens     = models.AuthTokens
	UserState      = models.UserState
	DiagnosticInfo = diagnostics.Info
	Logger         = logging.Logger
)

const (
	TokenTypeEarner    = models.TokenTypeEarner
	TokenTypeSpender   = models.TokenTypeSpender
	TokenTypeIndicator = models.TokenTypeIndicator
	TokenTypeAccount   = models.TokenTypeAccount
)

// HTTPParams describes a request the host transport should perform.
type HTTPParams struct {
	Scheme   string
	Hostname string
	Port     int
	Method   string
	Path     string
	Headers  map[string]string
	Query    map[string]string
}

// HTTPResult is what the host transport reports back. Code is the HTTP
// status, or a negative value when the request could not be made.
type HTTPResult struct {
	Code  int
	Body  string
	Date  string
	Error string
}

// HTTPRequestFunc performs a request on behalf of the library. It is
// supplied by the host application.
type HTTPRequestFunc func(HTTPParams) HTTPResult

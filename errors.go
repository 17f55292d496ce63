package psicash

import "github.com/dmitrijs2005/psicash/internal/common"

// Error kinds returned by PsiCash. Match them with errors.Is.
var (
	ErrInvalidArgument    = common.ErrInvalidArgument
	ErrStorageUnavailable = common.ErrStorageUnavailable
	ErrStorage            = common.ErrStorage
	ErrURLParse           = common.ErrURLParse
	ErrNoValidTokens      = common.ErrNoValidTokens
	ErrNotInitialized     = common.ErrNotInitialized
)

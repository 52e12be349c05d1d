package evaluation

import "errors"

var ErrInvalidTemplate = errors.New("invalid evaluation template")

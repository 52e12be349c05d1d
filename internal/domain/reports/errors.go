package reports

import "errors"

var ErrNothingToPrint = errors.New("nothing to print")

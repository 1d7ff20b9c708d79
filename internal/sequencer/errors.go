package sequencer

import "errors"

var errNoProcedure = errors.New("runner has no procedure")

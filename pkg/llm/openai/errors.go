package openai

import "errors"

var errNoChoices = errors.New("completion response contained no choices")

package openai

import "errors"

var errNoChoices = errors.New("completion contained no choices")

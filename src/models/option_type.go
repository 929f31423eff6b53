package models

import "fmt"

type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

func (o OptionType) Validate() error {
	if o != Call && o != Put {
		return NewInvalidInputError(fmt.Sprintf("invalid option type: %s", o))
	}

	return nil
}

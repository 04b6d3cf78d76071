package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageParamsValidate(t *testing.T) {
	params := &MessageParams{Message: "I have a headache"}
	assert.Nil(t, Validate(params))

	empty := &MessageParams{}
	errs := Validate(empty)
	assert.Contains(t, errs, "Message")
}

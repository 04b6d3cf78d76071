package types

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
)

type Validater interface {
	Validate() map[string]string
}

type MessageParams struct {
	Message string `json:"message" validate:"required"`
	ChatID  string `json:"chatId"`
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func (params *MessageParams) Validate() map[string]string {
	validate := validator.New()
	if err := validate.Struct(params); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}

func NewValidationError(errors map[string]string) ValidationError {
	return ValidationError{
		Status: http.StatusUnprocessableEntity,
		Errors: errors,
	}
}

type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (e ValidationError) Error() string {
	return "validation failed"
}

// MessageResponse is the payload returned by the chat message endpoint.
type MessageResponse struct {
	Response        string          `json:"response"`
	ChatID          string          `json:"chatId"`
	Messages        []Message       `json:"messages"`
	SemanticContext SemanticContext `json:"semanticContext"`
	Timestamp       time.Time       `json:"timestamp"`
}

// SemanticContext reports how much retrieved context backed the answer.
type SemanticContext struct {
	RelevantMessages  int `json:"relevantMessages"`
	RelevantDocuments int `json:"relevantDocuments"`
}

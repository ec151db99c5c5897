package errx

import "net/http"

// WrapLLM wraps a completion provider error with a consistent status and message.
func WrapLLM(err error) *AppError {
	if err == nil {
		return nil
	}
	return New(err, http.StatusServiceUnavailable, LLMErrorMessage)
}

// WrapSearch wraps a retrieval provider error with a consistent status and message.
func WrapSearch(err error) *AppError {
	if err == nil {
		return nil
	}
	return New(err, http.StatusServiceUnavailable, SearchErrorMessage)
}

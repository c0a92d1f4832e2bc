package handlers

import (
	"errors"

	cerrors "github.com/clerk-dev/clerk/internal/errors"
)

// Response is the envelope returned by every handler. Message is always
// safe to show; it never contains secret values.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func ok(message string, data any) Response {
	return Response{Success: true, Message: message, Data: data}
}

func fail(err error) Response {
	return Response{Success: false, Message: messageFor(err)}
}

// messageFor turns a vault error into the text shown by the frontend.
func messageFor(err error) string {
	switch {
	case errors.Is(err, cerrors.ErrVaultNotFound):
		return "Vault does not exist. Please create one first."
	case errors.Is(err, cerrors.ErrVaultExists):
		return "Vault already exists. Please unlock it instead."
	case errors.Is(err, cerrors.ErrVaultLocked):
		return "Vault is locked"
	case errors.Is(err, cerrors.ErrInvalidPassword):
		return "Invalid password"
	case errors.Is(err, cerrors.ErrPasswordTooShort):
		return "Password must be at least 8 characters long"
	case errors.Is(err, cerrors.ErrNoCredential):
		return "No remembered key found"
	case errors.Is(err, cerrors.ErrCredentialMismatch):
		return "Remembered key does not match this vault. Please unlock with your password."
	}
	return err.Error()
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// signatureError is the taxonomy for contract lifecycle failures. Every
// guard failure maps to a stable code and a message safe to show an
// anonymous caller: the token itself was the secret, so disclosing that a
// link is expired or already used leaks nothing.
type signatureError struct {
	Code    string
	Status  int
	Message string
}

func (e *signatureError) Error() string { return e.Message }

var (
	errContractNotFound = &signatureError{
		Code: "not-found", Status: http.StatusNotFound,
		Message: "contract not found",
	}
	errInvalidLink = &signatureError{
		Code: "invalid-link", Status: http.StatusNotFound,
		Message: "this signing link is not valid; request a new one",
	}
	errExpiredLink = &signatureError{
		Code: "expired-link", Status: http.StatusGone,
		Message: "this signing link has expired; request a new one",
	}
	errAlreadySigned = &signatureError{
		Code: "already-signed", Status: http.StatusConflict,
		Message: "this contract has already been signed",
	}
	errMissingSignature = &signatureError{
		Code: "missing-signature", Status: http.StatusBadRequest,
		Message: "signer name and signature are required",
	}
	errTermsNotAccepted = &signatureError{
		Code: "terms-not-accepted", Status: http.StatusBadRequest,
		Message: "the terms must be accepted before signing",
	}
	errClientSignatureRequired = &signatureError{
		Code: "client-signature-required", Status: http.StatusBadRequest,
		Message: "the client must sign before the contract can be countersigned",
	}
	errSignerEmailRequired = &signatureError{
		Code: "signer-email-required", Status: http.StatusBadRequest,
		Message: "the client has no email address on file to send the signing link to",
	}
	errContractNotPending = &signatureError{
		Code: "not-pending", Status: http.StatusConflict,
		Message: "this contract is not awaiting a signature",
	}
)

// respondSignatureError writes a lifecycle failure with its taxonomy code.
// Unknown errors become a generic 500 without leaking internals.
func respondSignatureError(c *gin.Context, err error) {
	var se *signatureError
	if errors.As(err, &se) {
		c.JSON(se.Status, gin.H{"error": se.Message, "code": se.Code})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

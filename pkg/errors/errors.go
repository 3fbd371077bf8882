package errors

import (
	stdErrors "errors"
	"fmt"
)

type Code string

const (
	CodeValidation     Code = "VALIDATION_ERROR"
	CodeUnauthorized   Code = "UNAUTHORIZED"
	CodeForbidden      Code = "FORBIDDEN"
	CodeSessionExpired Code = "SESSION_EXPIRED"
	CodeNotFound       Code = "NOT_FOUND"
	CodeRemoteRejected Code = "REMOTE_REJECTED"
	CodeTransport      Code = "TRANSPORT_ERROR"
	CodeStateConflict  Code = "STATE_CONFLICT"
	CodeInternal       Code = "INTERNAL_ERROR"
)

// Metadata describes how a failure class behaves at the operator surface.
type Metadata struct {
	Retryable       bool
	PreservesDraft  bool
	OperatorMessage string
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		Retryable:       true,
		PreservesDraft:  true,
		OperatorMessage: "dados inválidos",
	},
	CodeUnauthorized: {
		Retryable:       false,
		PreservesDraft:  false,
		OperatorMessage: "usuário ou senha inválidos",
	},
	CodeForbidden: {
		Retryable:       false,
		PreservesDraft:  false,
		OperatorMessage: "acesso negado: área restrita",
	},
	CodeSessionExpired: {
		Retryable:       false,
		PreservesDraft:  false,
		OperatorMessage: "sessão expirada, faça login novamente",
	},
	CodeNotFound: {
		Retryable:       false,
		PreservesDraft:  true,
		OperatorMessage: "registro não encontrado",
	},
	CodeRemoteRejected: {
		Retryable:       true,
		PreservesDraft:  true,
		OperatorMessage: "operação recusada pelo servidor",
	},
	CodeTransport: {
		Retryable:       true,
		PreservesDraft:  true,
		OperatorMessage: "falha de comunicação com o servidor",
	},
	CodeStateConflict: {
		Retryable:       false,
		PreservesDraft:  true,
		OperatorMessage: "operação não permitida no estado atual",
	},
	CodeInternal: {
		Retryable:       true,
		PreservesDraft:  true,
		OperatorMessage: "erro interno",
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	detail  string
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// Detail carries the backend's human-readable reason; it is shown to the
// operator verbatim.
func (e *Error) Detail() string {
	if e == nil {
		return ""
	}
	return e.detail
}

func (e *Error) WithDetail(detail string) *Error {
	if e == nil {
		return nil
	}
	e.detail = detail
	return e
}

// OperatorMessage returns the text to surface: the backend detail when one
// exists, the code's generic message otherwise.
func (e *Error) OperatorMessage() string {
	if e == nil {
		return MetadataFor(CodeInternal).OperatorMessage
	}
	if e.detail != "" {
		return e.detail
	}
	return MetadataFor(e.code).OperatorMessage
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf extracts the failure code, defaulting to internal for foreign errors.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.Code()
	}
	return CodeInternal
}

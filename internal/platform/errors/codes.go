// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Plant errors
	CodePlantNameEmpty   Code = "PLANT_NAME_EMPTY"
	CodePlantNameTooLong Code = "PLANT_NAME_TOO_LONG"
	CodeInvalidAction    Code = "INVALID_ACTION"
	CodeCooldownActive   Code = "COOLDOWN_ACTIVE"

	// Item errors
	CodeItemUnknown       Code = "ITEM_UNKNOWN"
	CodeItemNotForSale    Code = "ITEM_NOT_FOR_SALE"
	CodeItemNotHeld       Code = "ITEM_NOT_HELD"
	CodeInsufficientCoins Code = "INSUFFICIENT_COINS"

	// Account errors
	CodeUnauthenticated   Code = "UNAUTHENTICATED"
	CodeUsernameEmpty     Code = "USERNAME_EMPTY"
	CodeUsernameInvalid   Code = "USERNAME_INVALID"
	CodeUsernameTaken     Code = "USERNAME_TAKEN"
	CodePasswordTooShort  Code = "PASSWORD_TOO_SHORT"
	CodePasswordNotSet    Code = "PASSWORD_NOT_SET"
	CodePasswordIncorrect Code = "PASSWORD_INCORRECT"

	// Certificate errors
	CodeCertificateActive Code = "CERTIFICATE_ACTIVE"
	CodeCertificateLinked Code = "CERTIFICATE_LINKED"
	CodeLinkGrantInvalid  Code = "LINK_GRANT_INVALID"
	CodeLinkGrantExpired  Code = "LINK_GRANT_EXPIRED"
	CodeLinkGrantMismatch Code = "LINK_GRANT_MISMATCH"

	// Mailbox errors
	CodeMessageSubjectEmpty   Code = "MESSAGE_SUBJECT_EMPTY"
	CodeMessageSubjectTooLong Code = "MESSAGE_SUBJECT_TOO_LONG"
	CodeMessageBodyTooLong    Code = "MESSAGE_BODY_TOO_LONG"
	CodeRecipientUnknown      Code = "RECIPIENT_UNKNOWN"
	CodeFilterInvalid         Code = "FILTER_INVALID"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodePlantNameEmpty,
		CodePlantNameTooLong,
		CodeItemUnknown,
		CodeUsernameEmpty,
		CodeUsernameInvalid,
		CodePasswordTooShort,
		CodeLinkGrantInvalid,
		CodeLinkGrantMismatch,
		CodeMessageSubjectEmpty,
		CodeMessageSubjectTooLong,
		CodeMessageBodyTooLong,
		CodeFilterInvalid:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeInvalidAction,
		CodeCooldownActive,
		CodeItemNotForSale,
		CodeItemNotHeld,
		CodeInsufficientCoins,
		CodePasswordNotSet,
		CodeCertificateActive,
		CodeCertificateLinked,
		CodeLinkGrantExpired:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeRecipientUnknown:
		return codes.NotFound

	// AlreadyExists - unique resource constraint
	case CodeUsernameTaken:
		return codes.AlreadyExists

	// Unauthenticated - caller identity missing or rejected
	case CodeUnauthenticated,
		CodePasswordIncorrect:
		return codes.Unauthenticated

	default:
		return codes.Internal
	}
}

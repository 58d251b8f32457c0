package errors

import (
	"errors"

	"github.com/astralgarden/astral.garden/internal/platform/errors/i18n"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Domain tags ErrorInfo details so clients can tell this service's codes
// apart from codes relayed from elsewhere.
const Domain = "github.com/astralgarden/astral.garden"

// DefaultLocale is used when a request carries no locale.
const DefaultLocale = "en-US"

// HandleError converts an error into a gRPC status whose LocalizedMessage
// holds the catalog translation for the given locale. Errors without a code
// become a generic Internal status so internals never reach clients.
func HandleError(err error, locale string) error {
	if err == nil {
		return nil
	}

	if locale == "" {
		locale = DefaultLocale
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		catalog := i18n.GetCatalog(locale)
		userMsg := catalog.Format(string(appErr.Code), appErr.Metadata)
		return appErr.toGRPCStatus(catalog.Locale(), userMsg)
	}

	return status.Error(codes.Internal, "an unexpected error occurred")
}

// UserMessage formats the user-facing text for an error in the given locale
// without converting it to a transport status. Errors without a code produce
// the generic unknown-error message.
func UserMessage(err error, locale string) string {
	if err == nil {
		return ""
	}
	catalog := i18n.GetCatalog(locale)
	var appErr *Error
	if errors.As(err, &appErr) {
		return catalog.Format(string(appErr.Code), appErr.Metadata)
	}
	return catalog.Format(string(CodeUnknown), nil)
}

// toGRPCStatus builds the status carrying ErrorInfo and LocalizedMessage
// details. The status message keeps the internal text for server logs.
func (e *Error) toGRPCStatus(locale string, userMessage string) error {
	grpcCode := e.Code.GRPCCode()
	st := status.New(grpcCode, e.Message)

	st, err := st.WithDetails(
		&errdetails.ErrorInfo{
			Reason:   string(e.Code),
			Domain:   Domain,
			Metadata: e.Metadata,
		},
		&errdetails.LocalizedMessage{
			Locale:  locale,
			Message: userMessage,
		},
	)
	if err != nil {
		return status.New(grpcCode, e.Message).Err()
	}
	return st.Err()
}

package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeUnknown               = "UNKNOWN"
	CodePlantNameEmpty        = "PLANT_NAME_EMPTY"
	CodePlantNameTooLong      = "PLANT_NAME_TOO_LONG"
	CodeInvalidAction         = "INVALID_ACTION"
	CodeCooldownActive        = "COOLDOWN_ACTIVE"
	CodeItemUnknown           = "ITEM_UNKNOWN"
	CodeItemNotForSale        = "ITEM_NOT_FOR_SALE"
	CodeItemNotHeld           = "ITEM_NOT_HELD"
	CodeInsufficientCoins     = "INSUFFICIENT_COINS"
	CodeUnauthenticated       = "UNAUTHENTICATED"
	CodeUsernameEmpty         = "USERNAME_EMPTY"
	CodeUsernameInvalid       = "USERNAME_INVALID"
	CodeUsernameTaken         = "USERNAME_TAKEN"
	CodePasswordTooShort      = "PASSWORD_TOO_SHORT"
	CodePasswordNotSet        = "PASSWORD_NOT_SET"
	CodePasswordIncorrect     = "PASSWORD_INCORRECT"
	CodeCertificateActive     = "CERTIFICATE_ACTIVE"
	CodeCertificateLinked     = "CERTIFICATE_LINKED"
	CodeLinkGrantInvalid      = "LINK_GRANT_INVALID"
	CodeLinkGrantExpired      = "LINK_GRANT_EXPIRED"
	CodeLinkGrantMismatch     = "LINK_GRANT_MISMATCH"
	CodeMessageSubjectEmpty   = "MESSAGE_SUBJECT_EMPTY"
	CodeMessageSubjectTooLong = "MESSAGE_SUBJECT_TOO_LONG"
	CodeMessageBodyTooLong    = "MESSAGE_BODY_TOO_LONG"
	CodeRecipientUnknown      = "RECIPIENT_UNKNOWN"
	CodeFilterInvalid         = "FILTER_INVALID"
	CodeNotFound              = "NOT_FOUND"
)

var enUSCatalog = &Catalog{
	locale: "en-US",
	messages: map[Code]string{
		CodeUnknown: "An unexpected error occurred",

		// Plant errors
		CodePlantNameEmpty:   "Plant name cannot be empty",
		CodePlantNameTooLong: "Plant name must be at most {{.MaxLength}} characters",
		CodeInvalidAction:    "Your plant cannot do that right now",
		CodeCooldownActive:   "You must wait {{.Remaining}} before doing that again",

		// Item errors
		CodeItemUnknown:       "No such item: {{.Item}}",
		CodeItemNotForSale:    "That item is not for sale",
		CodeItemNotHeld:       "You do not have a {{.Item}}",
		CodeInsufficientCoins: "You need {{.Price}} coins but only have {{.Held}}",

		// Account errors
		CodeUnauthenticated:   "A client certificate is required",
		CodeUsernameEmpty:     "Username cannot be empty",
		CodeUsernameInvalid:   "Username must be printable ASCII, at most {{.MaxLength}} characters",
		CodeUsernameTaken:     "That username is already taken",
		CodePasswordTooShort:  "Password must be at least {{.MinLength}} characters",
		CodePasswordNotSet:    "Set a password before linking a new certificate",
		CodePasswordIncorrect: "Password is incorrect",

		// Certificate errors
		CodeCertificateActive: "The active certificate cannot be removed",
		CodeCertificateLinked: "This certificate is already linked to an account",
		CodeLinkGrantInvalid:  "Link token is invalid",
		CodeLinkGrantExpired:  "Link token has expired",
		CodeLinkGrantMismatch: "Link token {{.Field}} does not match",

		// Mailbox errors
		CodeMessageSubjectEmpty:   "Message subject cannot be empty",
		CodeMessageSubjectTooLong: "Message subject must be at most {{.MaxLength}} characters",
		CodeMessageBodyTooLong:    "Message body must be at most {{.MaxLength}} characters",
		CodeRecipientUnknown:      "No gardener by that name",
		CodeFilterInvalid:         "Mailbox filter is invalid: {{.Detail}}",

		// Storage errors
		CodeNotFound: "The requested resource was not found",
	},
}

func init() {
	RegisterCatalog("en-US", enUSCatalog)
}

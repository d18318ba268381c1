package auth

import "errors"

var (
	// ErrInvalidCredentials is the only rejection callers of Authenticate ever observe.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned by TokenCodec.Verify for every kind of bad token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUnauthenticated is the only rejection callers of Resolve ever observe.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrStoreUnavailable marks a credential store fault. It is never a rejection.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	// ErrSubjectNotFound is returned by a CredentialStore when no record exists.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrEmptySecret is returned by NewTokenCodec when no signing secret is configured.
	ErrEmptySecret = errors.New("signing secret must not be empty")
	// ErrEmptyPassword is returned by PasswordHasher.Hash for an empty plaintext.
	ErrEmptyPassword = errors.New("password must not be empty")
)

// Reason distinguishes rejections for logs and metrics. It never reaches clients.
type Reason string

const (
	ReasonUnknownSubject  Reason = "unknown_subject"
	ReasonDisabledAccount Reason = "disabled_account"
	ReasonBadCredential   Reason = "bad_credential"
	ReasonMalformedToken  Reason = "malformed_token"
	ReasonBadSignature    Reason = "bad_signature"
	ReasonExpiredToken    Reason = "expired_token"
)

// RejectionError carries the internal reason of a rejection while presenting the same
// message for every reason of the same kind.
type RejectionError struct {
	Reason Reason
	kind   error
}

func (e *RejectionError) Error() string {
	return e.kind.Error()
}

// Is reports whether target is the collapsed kind of this rejection.
func (e *RejectionError) Is(target error) bool {
	return target == e.kind
}

func reject(kind error, reason Reason) error {
	return &RejectionError{Reason: reason, kind: kind}
}

// RejectionReason extracts the internal reason from a rejection.
func RejectionReason(err error) (Reason, bool) {
	var rejection *RejectionError
	if errors.As(err, &rejection) {
		return rejection.Reason, true
	}
	return "", false
}

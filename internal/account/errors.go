package account

import "errors"

var (
	ErrNotFound      = errors.New("account: not found")
	ErrAlreadyExists = errors.New("account: already exists")
	ErrInvalidInput  = errors.New("account: invalid input")
	ErrUnauthorized  = errors.New("account: unauthorized")
)

// GenericCredentialsMessage is the single client-facing message for every
// login failure. Unknown email and wrong password must be indistinguishable.
const GenericCredentialsMessage = "invalid email or password"

package model

// CSRFManager issues and validates CSRF tokens for state-changing requests.
type CSRFManager interface {
	Generate() (string, error)
	Validate(token string) error
}

// Package redirect serializes pending enrollment state into URL query
// parameters so the purchase flow survives the round trip through the
// external payment gateway. The encoded query string is the only place this
// state lives until the finalizer decodes it.
package redirect

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"enrollhub-backend-go/internal/models"
)

// ErrMalformedState is returned when the redirect query is missing a
// required field or cannot be parsed. Callers must treat this as a client
// error: no retry, no side effects.
var ErrMalformedState = errors.New("malformed redirect state")

// Query parameter names form the redirect URL contract with the client.
const (
	paramCourseID  = "courseId"
	paramCourse    = "course"
	paramFirstname = "firstname"
	paramLastname  = "lastname"
	paramEmail     = "email"
	paramPassword  = "password"
	paramAmount    = "amount"
	paramCurrency  = "currency"
)

// Encode serializes an enrollment intent into a URL query string.
// url.Values handles percent-escaping, so reserved characters in any field
// (including the sealed credential secret) round-trip losslessly. Output is
// deterministic: url.Values.Encode sorts by key.
func Encode(intent models.EnrollmentIntent) string {
	v := url.Values{}
	v.Set(paramCourseID, intent.ProgramID)
	v.Set(paramCourse, intent.ProgramTitle)
	v.Set(paramFirstname, intent.GivenName)
	v.Set(paramLastname, intent.FamilyName)
	v.Set(paramEmail, intent.Email)
	v.Set(paramPassword, intent.CredentialSecret)
	v.Set(paramAmount, strconv.FormatInt(intent.PriceMinorUnits, 10))
	v.Set(paramCurrency, intent.Currency)
	return v.Encode()
}

// Decode parses redirect query parameters back into an enrollment intent.
func Decode(v url.Values) (*models.EnrollmentIntent, error) {
	intent := &models.EnrollmentIntent{
		ProgramID:        v.Get(paramCourseID),
		ProgramTitle:     v.Get(paramCourse),
		GivenName:        v.Get(paramFirstname),
		FamilyName:       v.Get(paramLastname),
		Email:            v.Get(paramEmail),
		CredentialSecret: v.Get(paramPassword),
		Currency:         v.Get(paramCurrency),
	}

	required := map[string]string{
		paramCourseID:  intent.ProgramID,
		paramFirstname: intent.GivenName,
		paramLastname:  intent.FamilyName,
		paramEmail:     intent.Email,
		paramPassword:  intent.CredentialSecret,
	}
	for name, val := range required {
		if val == "" {
			return nil, fmt.Errorf("%w: missing field %q", ErrMalformedState, name)
		}
	}

	rawAmount := v.Get(paramAmount)
	if rawAmount == "" {
		return nil, fmt.Errorf("%w: missing field %q", ErrMalformedState, paramAmount)
	}
	amount, err := strconv.ParseInt(rawAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: field %q is not an integer", ErrMalformedState, paramAmount)
	}
	intent.PriceMinorUnits = amount

	return intent, nil
}

// DecodeQuery is a convenience wrapper for callers holding a raw query
// string rather than parsed values.
func DecodeQuery(rawQuery string) (*models.EnrollmentIntent, error) {
	v, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	return Decode(v)
}

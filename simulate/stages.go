package simulate

import (
	"fmt"
	"regexp"
)

const (
	MsgInvalidEmail = "Invalid email"
	MsgUnderage     = "User under 18"

	FailedAtValidation = "validation"
)

// emailPattern treats Unicode spaces, vertical tab and BOM as whitespace too.
var emailPattern = regexp.MustCompile(`^[^\s\x0B\p{Z}\x{FEFF}@]+@[^\s\x0B\p{Z}\x{FEFF}@]+\.[^\s\x0B\p{Z}\x{FEFF}@]+$`)

// Validation is the outcome of the validator stage. A failed validation is data, not an error.
type Validation struct {
	Errors []string `json:"errors"`
}

// Valid reports whether no check failed.
func (v Validation) Valid() bool { return len(v.Errors) == 0 }

// Validate runs both checks unconditionally. Errors come in the order email, age.
func Validate(u User) Validation {
	errs := []string{}
	if !emailPattern.MatchString(u.Email) {
		errs = append(errs, MsgInvalidEmail)
	}
	if u.Age < 18 {
		errs = append(errs, MsgUnderage)
	}
	return Validation{Errors: errs}
}

// RegionResult is the user enriched with the policy of their region.
type RegionResult struct {
	User
	RegionPolicy string `json:"regionPolicy"`
}

var regionPolicies = map[string]string{
	"US":   "GDPR Not Required",
	"EU":   "GDPR Required",
	"Asia": "APAC Policy",
}

// DefaultRegionPolicy applies to regions without a dedicated policy.
const DefaultRegionPolicy = "Generic"

// ProcessRegion attaches the data policy of the user's region.
func ProcessRegion(u User) RegionResult {
	policy, ok := regionPolicies[u.Region]
	if !ok {
		policy = DefaultRegionPolicy
	}
	return RegionResult{User: u, RegionPolicy: policy}
}

// EmailResult carries the rendered welcome message.
type EmailResult struct {
	RegionResult
	WelcomeMessage string `json:"welcomeMessage"`
}

// SendEmail renders the welcome message. Nothing is sent.
func SendEmail(r RegionResult) EmailResult {
	return EmailResult{
		RegionResult:   r,
		WelcomeMessage: fmt.Sprintf("Dear %s,\nWelcome to our %s community!", r.Name, r.Region),
	}
}

// ErrorResult is what the error handler records for a rejected user.
type ErrorResult struct {
	User
	Validation Validation `json:"validation"`
	FailedAt   string     `json:"failedAt"`
}

// HandleError records that u was rejected at validation.
func HandleError(u User, v Validation) ErrorResult {
	return ErrorResult{User: u, Validation: v, FailedAt: FailedAtValidation}
}

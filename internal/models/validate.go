package models

import (
	"regexp"
	"strings"
)

var (
	namePattern       = regexp.MustCompile(`^[A-Za-z-]+$`)
	emailPattern      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	courseCodePattern = regexp.MustCompile(`^[A-Z]{2,4}[0-9]{3,4}$`)
)

// ValidatePersonFields checks the name and email rules shared by students and instructors.
// Every rule is evaluated; format and length failures are reported separately.
func ValidatePersonFields(firstName, lastName, email string) []string {
	var errs []string

	if !namePattern.MatchString(firstName) {
		errs = append(errs, "First name must contain only letters and hyphens")
	}
	if len(firstName) < 2 {
		errs = append(errs, "First name must be at least 2 characters long")
	}

	if !namePattern.MatchString(lastName) {
		errs = append(errs, "Last name must contain only letters and hyphens")
	}
	if len(lastName) < 2 {
		errs = append(errs, "Last name must be at least 2 characters long")
	}

	if !emailPattern.MatchString(email) {
		errs = append(errs, "Invalid email format")
	}
	if len(email) < 5 {
		errs = append(errs, "Email must be at least 5 characters long")
	}

	return errs
}

// ValidateCourseCode checks the 2-4 capital letters + 3-4 digits format, e.g. CS101.
func ValidateCourseCode(code string) []string {
	if courseCodePattern.MatchString(code) {
		return nil
	}
	return []string{"Course code must be in format: 2-4 capital letters followed by 3-4 numbers (e.g., CS101, MATH2001)"}
}

func invalidStatus[T ~string](name string, status T, all []T) string {
	labels := make([]string, len(all))
	for i, s := range all {
		labels[i] = string(s)
	}
	return "Invalid " + name + ": " + string(status) + " (expected one of " + strings.Join(labels, ", ") + ")"
}

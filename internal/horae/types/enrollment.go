package types

// Enrollment binds a stored biometric template to a registered identity.
// Enrollments are loaded as an immutable snapshot; a reload installs a
// whole new slice rather than mutating one in place, so readers never
// see a half-updated set.
type Enrollment struct {
	IdentityID  string
	DisplayName string
	GroupLabel  string
	Template    []byte
}

package profiles

// UpsertInput carries the fields seeded on first authenticated contact.
type UpsertInput struct {
	IdentityID  string
	DisplayName string
	Phone       *string
}

// UpdateInput is a partial patch; nil fields are left untouched.
type UpdateInput struct {
	DisplayName *string
	Phone       *string
	Address     *string
	City        *string
}

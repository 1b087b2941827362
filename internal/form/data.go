// Package form holds the registration wizard's state machine, its typed form
// state, per-step validation and the mapping of server-side field errors.
package form

// Wire names of every registration field, in the order they are submitted.
const (
	FieldEmail                = "email"
	FieldUsername             = "username"
	FieldPassword             = "password"
	FieldPasswordConfirmation = "password_confirmation"
	FieldFirstName            = "first_name"
	FieldLastName             = "last_name"
	FieldContactNo            = "contact_no"
	FieldAlternateContactNo   = "alternate_contact_no"
	FieldPhoto                = "photo"
	FieldSignaturePhoto       = "signature_photo"
)

// Credentials is the step 1 (Account) portion of the form.
type Credentials struct {
	Email                string `form:"email" validate:"required"`
	Username             string `form:"username" validate:"required"`
	Password             string `form:"password" validate:"required"`
	PasswordConfirmation string `form:"password_confirmation" validate:"required,eqfield=Password"`
}

// PersonalInfo is the step 2 (Personal) portion of the form.
type PersonalInfo struct {
	FirstName          string `form:"first_name" validate:"required"`
	LastName           string `form:"last_name" validate:"required"`
	ContactNo          string `form:"contact_no" validate:"required"`
	AlternateContactNo string `form:"alternate_contact_no"`
}

// Images is the step 3 (Image) portion of the form.
type Images struct {
	Photo          *Upload `form:"photo" validate:"required"`
	SignaturePhoto *Upload `form:"signature_photo" validate:"required"`
}

// Upload is a selected file ready to be sent as a multipart file part.
type Upload struct {
	Filename    string // Base name of the selected file
	ContentType string // Sniffed MIME type
	Content     []byte
}

// Size returns the upload size in bytes.
func (u *Upload) Size() int {
	if u == nil {
		return 0
	}
	return len(u.Content)
}

// Data is the complete form state accumulated across all steps.
// Values persist across step changes for the lifetime of a Controller.
type Data struct {
	Account  Credentials
	Personal PersonalInfo
	Images   Images
}

// TextField is a single non-file field in submission order.
type TextField struct {
	Name  string
	Value string
}

// TextFields returns every text field in the order they are submitted.
func (d Data) TextFields() []TextField {
	return []TextField{
		{FieldEmail, d.Account.Email},
		{FieldUsername, d.Account.Username},
		{FieldPassword, d.Account.Password},
		{FieldPasswordConfirmation, d.Account.PasswordConfirmation},
		{FieldFirstName, d.Personal.FirstName},
		{FieldLastName, d.Personal.LastName},
		{FieldContactNo, d.Personal.ContactNo},
		{FieldAlternateContactNo, d.Personal.AlternateContactNo},
	}
}

// FileField is a single file field in submission order.
type FileField struct {
	Name   string
	Upload *Upload
}

// FileFields returns both file fields in the order they are submitted.
func (d Data) FileFields() []FileField {
	return []FileField{
		{FieldPhoto, d.Images.Photo},
		{FieldSignaturePhoto, d.Images.SignaturePhoto},
	}
}

// StepOf reports which step a field is entered on (0 for unknown fields).
func StepOf(field string) Step {
	switch field {
	case FieldEmail, FieldUsername, FieldPassword, FieldPasswordConfirmation:
		return StepAccount
	case FieldFirstName, FieldLastName, FieldContactNo, FieldAlternateContactNo:
		return StepPersonal
	case FieldPhoto, FieldSignaturePhoto:
		return StepImages
	}
	return 0
}

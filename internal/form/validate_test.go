package form

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateStep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		step Step
		data Data
		want FieldErrors
	}{
		{
			name: "valid account",
			step: StepAccount,
			data: Data{Account: validCredentials()},
		},
		{
			name: "missing confirmation reports required not mismatch",
			step: StepAccount,
			data: Data{Account: Credentials{Email: "a", Username: "b", Password: "c"}},
			want: FieldErrors{FieldPasswordConfirmation: {"Confirm your password"}},
		},
		{
			name: "mismatch",
			step: StepAccount,
			data: Data{Account: Credentials{Email: "a", Username: "b", Password: "c", PasswordConfirmation: "d"}},
			want: FieldErrors{FieldPasswordConfirmation: {"Passwords do not match"}},
		},
		{
			name: "account ignores later steps",
			step: StepAccount,
			data: Data{Account: validCredentials(), Personal: PersonalInfo{}},
		},
		{
			name: "personal without alternate contact",
			step: StepPersonal,
			data: Data{Personal: validPersonal()},
		},
		{
			name: "personal missing last name",
			step: StepPersonal,
			data: Data{Personal: PersonalInfo{FirstName: "Ada", ContactNo: "1"}},
			want: FieldErrors{FieldLastName: {"Last Name is required"}},
		},
		{
			name: "images missing signature",
			step: StepImages,
			data: Data{Images: Images{Photo: &Upload{Filename: "a.png"}}},
			want: FieldErrors{FieldSignaturePhoto: {"Signature photo is required"}},
		},
		{
			name: "empty upload still counts as selected",
			step: StepImages,
			data: Data{Images: Images{Photo: &Upload{Filename: "empty.png"}, SignaturePhoto: &Upload{Filename: "empty.png"}}},
		},
		{
			name: "done step has no rules",
			step: StepDone,
			data: Data{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStep(tt.step, tt.data)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tt.step, verr.Step)
			require.Equal(t, tt.want, verr.Fields)
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	t.Parallel()

	err := ValidateStep(StepAccount, Data{})
	require.EqualError(t, err, "step 1 invalid: email, password, password_confirmation, username")
}

func TestData_FieldOrder(t *testing.T) {
	t.Parallel()

	d := validData()
	var names []string
	for _, f := range d.TextFields() {
		names = append(names, f.Name)
	}
	for _, f := range d.FileFields() {
		names = append(names, f.Name)
	}

	require.Equal(t, []string{
		FieldEmail, FieldUsername, FieldPassword, FieldPasswordConfirmation,
		FieldFirstName, FieldLastName, FieldContactNo, FieldAlternateContactNo,
		FieldPhoto, FieldSignaturePhoto,
	}, names)
}

func TestStepOf(t *testing.T) {
	t.Parallel()

	require.Equal(t, StepAccount, StepOf(FieldPasswordConfirmation))
	require.Equal(t, StepPersonal, StepOf(FieldAlternateContactNo))
	require.Equal(t, StepImages, StepOf(FieldSignaturePhoto))
	require.Equal(t, Step(0), StepOf("nickname"))
}

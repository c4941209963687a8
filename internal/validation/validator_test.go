package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type updateForm struct {
	Name  *string `json:"name" validate:"omitempty,max=5"`
	Age   *int    `json:"age" validate:"omitempty,min=0,max=130"`
	Email string  `json:"email" validate:"required,email"`
}

func TestValidateStructPasses(t *testing.T) {
	name := "Asha"
	age := 29
	err := ValidateStruct(&updateForm{Name: &name, Age: &age, Email: "asha@example.com"})
	assert.NoError(t, err)
}

func TestValidateStructReportsFieldsByJSONName(t *testing.T) {
	name := "way too long"
	age := 200
	err := ValidateStruct(&updateForm{Name: &name, Age: &age})
	require.Error(t, err)

	verr, ok := err.(*ValidationError)
	require.True(t, ok)

	fields, ok := verr.ProblemContext().(map[string]any)["fields"].(FieldErrors)
	require.True(t, ok)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "age")
	assert.Contains(t, fields, "email")
	assert.Equal(t, []string{"is required"}, fields["email"])
}

func TestValidateStructStatusAndCode(t *testing.T) {
	err := ValidateStruct(&updateForm{})
	require.Error(t, err)

	verr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, 400, verr.ProblemStatus())
	assert.Equal(t, "ErrValidation", verr.ProblemCode())
	assert.NotEmpty(t, verr.Error())
}

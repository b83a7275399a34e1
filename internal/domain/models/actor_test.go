package models

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func Test_ActorFrom_ShouldBuildVariantByRole(t *testing.T) {
	admin, err := ActorFrom(1, "admin", 0)
	assert.NoError(t, err)
	assert.Equal(t, Admin{ID: 1}, admin)

	hospital, err := ActorFrom(2, "hospital", 20)
	assert.NoError(t, err)
	assert.Equal(t, HospitalOwner{ID: 2, HospitalProfileID: 20}, hospital)

	doctor, err := ActorFrom(3, "doctor", 30)
	assert.NoError(t, err)
	assert.Equal(t, DoctorOwner{ID: 3, DoctorProfileID: 30}, doctor)
}

func Test_ActorFrom_WhenInvalidInput_ShouldFail(t *testing.T) {
	_, err := ActorFrom(0, "admin", 0)
	assert.Error(t, err)

	_, err = ActorFrom(1, "hospital", 0)
	assert.Error(t, err)

	_, err = ActorFrom(1, "doctor", 0)
	assert.Error(t, err)

	_, err = ActorFrom(1, "superuser", 5)
	assert.Error(t, err)
}

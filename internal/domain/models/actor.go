package models

import "fmt"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleHospital Role = "hospital"
	RoleDoctor   Role = "doctor"
)

// Actor is the authenticated caller of a lifecycle operation. The set of
// implementations is closed: Admin, HospitalOwner and DoctorOwner.
type Actor interface {
	UserID() int64
	Role() Role
	sealed()
}

type Admin struct {
	ID int64
}

type HospitalOwner struct {
	ID                int64
	HospitalProfileID int64
}

type DoctorOwner struct {
	ID              int64
	DoctorProfileID int64
}

func (a Admin) UserID() int64 { return a.ID }
func (a Admin) Role() Role    { return RoleAdmin }
func (Admin) sealed()         {}

func (h HospitalOwner) UserID() int64 { return h.ID }
func (h HospitalOwner) Role() Role    { return RoleHospital }
func (HospitalOwner) sealed()         {}

func (d DoctorOwner) UserID() int64 { return d.ID }
func (d DoctorOwner) Role() Role    { return RoleDoctor }
func (DoctorOwner) sealed()         {}

// ActorFrom converts the {id, role, ownedProfileId} triple supplied by the
// auth middleware.
func ActorFrom(userID int64, role string, ownedProfileID int64) (Actor, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid actor id %d", userID)
	}

	switch Role(role) {
	case RoleAdmin:
		return Admin{ID: userID}, nil
	case RoleHospital:
		if ownedProfileID <= 0 {
			return nil, fmt.Errorf("hospital actor %d has no hospital profile", userID)
		}
		return HospitalOwner{ID: userID, HospitalProfileID: ownedProfileID}, nil
	case RoleDoctor:
		if ownedProfileID <= 0 {
			return nil, fmt.Errorf("doctor actor %d has no doctor profile", userID)
		}
		return DoctorOwner{ID: userID, DoctorProfileID: ownedProfileID}, nil
	default:
		return nil, fmt.Errorf("unknown actor role %q", role)
	}
}

package schema

// UserProfileTable represents the 'public.user_profiles' table
type UserProfileTable struct {
	Table              string
	ID                 string
	Email              string
	FullName           string
	Role               string
	IsAdminApproved    string
	AdminRequestStatus string
	AdminRequestedAt   string
	CreatedAt          string
	UpdatedAt          string
}

// UserProfile is the schema definition for public.user_profiles
var UserProfile = UserProfileTable{
	Table:              "public.user_profiles",
	ID:                 "id",
	Email:              "email",
	FullName:           "full_name",
	Role:               "role",
	IsAdminApproved:    "is_admin_approved",
	AdminRequestStatus: "admin_request_status",
	AdminRequestedAt:   "admin_requested_at",
	CreatedAt:          "created_at",
	UpdatedAt:          "updated_at",
}

// Columns returns all standard column names
func (t UserProfileTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.FullName, t.Role, t.IsAdminApproved,
		t.AdminRequestStatus, t.AdminRequestedAt, t.CreatedAt, t.UpdatedAt,
	}
}

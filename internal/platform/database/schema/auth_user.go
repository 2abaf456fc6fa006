package schema

// AuthUserTable represents the 'auth.users' table owned by the identity provider
type AuthUserTable struct {
	Table     string
	ID        string
	Email     string
	Password  string
	Metadata  string
	CreatedAt string
	UpdatedAt string
}

// AuthUser is the schema definition for auth.users
var AuthUser = AuthUserTable{
	Table:     "auth.users",
	ID:        "id",
	Email:     "email",
	Password:  "encrypted_password",
	Metadata:  "raw_user_meta_data",
	CreatedAt: "created_at",
	UpdatedAt: "updated_at",
}

// Columns returns all standard column names
func (t AuthUserTable) Columns() []string {
	return []string{t.ID, t.Email, t.Password, t.Metadata, t.CreatedAt, t.UpdatedAt}
}

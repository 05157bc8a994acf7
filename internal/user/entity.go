// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/carterperez-dev/storefront-api/internal/core"
	"github.com/carterperez-dev/storefront-api/internal/media"
)

type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Name         string    `db:"name"`
	Role         string    `db:"role"`
	Verified     bool      `db:"verified"`
	GoogleID     *string   `db:"google_id"`
	AvatarURL    string    `db:"avatar_url"`
	AvatarID     string    `db:"avatar_id"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == core.RoleAdmin
}

func (u *User) Avatar() media.Asset {
	return media.Asset{URL: u.AvatarURL, ID: u.AvatarID}
}

func (u *User) SetAvatar(a media.Asset) {
	u.AvatarURL = a.URL
	u.AvatarID = a.ID
}

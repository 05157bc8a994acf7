// AngelaMos | 2026
// entity.go

package featured

import (
	"time"

	"github.com/carterperez-dev/storefront-api/internal/media"
)

const bannerFolder = "featured"

type FeaturedProduct struct {
	ID        string      `db:"id"`
	Title     string      `db:"title"`
	Link      string      `db:"link"`
	LinkTitle string      `db:"link_title"`
	Banner    media.Asset `db:"banner"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

type Request struct {
	Title     *string `validate:"omitempty,min=1,max=200"`
	Link      *string `validate:"omitempty,max=2048"`
	LinkTitle *string `validate:"omitempty,min=1,max=100"`
}

type Response struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Link      string      `json:"link"`
	LinkTitle string      `json:"link_title"`
	Banner    media.Asset `json:"banner"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func ToResponse(f *FeaturedProduct) Response {
	return Response{
		ID:        f.ID,
		Title:     f.Title,
		Link:      f.Link,
		LinkTitle: f.LinkTitle,
		Banner:    f.Banner,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

func ToResponseList(items []FeaturedProduct) []Response {
	out := make([]Response, 0, len(items))
	for i := range items {
		out = append(out, ToResponse(&items[i]))
	}
	return out
}

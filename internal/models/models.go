package models

import "time"

// User represents a writer account within the Inkwell platform.
// Password holds the bcrypt hash and RefreshToken the single refresh
// token currently valid for the account; neither is ever serialized.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	Password     string
	AvatarURL    string
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the response projection of a User with credential and
// session fields stripped.
type PublicUser struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstname"`
	LastName  string    `json:"lastname"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public returns the sanitized projection of the user.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}

// Profile combines the public view of a user with their blog counts.
type Profile struct {
	PublicUser
	PublicBlogs  int `json:"publicBlogs"`
	PrivateBlogs int `json:"privateBlogs"`
}

// Blog visibility statuses.
const (
	StatusPublic  = "public"
	StatusPrivate = "private"
)

// Blog represents a published post along with its featured image asset.
type Blog struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	FeaturedImage string    `json:"featuredImage"`
	Status        string    `json:"status"`
	WriterID      string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// BlogSummary is the owner-listing projection of a Blog with the content
// body omitted.
type BlogSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	FeaturedImage string    `json:"featuredImage"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Author carries the display fields of a blog's writer joined into
// public blog reads.
type Author struct {
	ID        string `json:"id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	AvatarURL string `json:"avatar,omitempty"`
}

// PublicBlog is a publicly visible blog together with its author's
// display fields.
type PublicBlog struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	FeaturedImage string    `json:"featuredImage"`
	Status        string    `json:"status"`
	Writer        Author    `json:"writer"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// TokenPair groups the bearer credentials issued to authenticated users.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// ImageUpload is an image file received from a client, buffered in
// memory until it is persisted to the asset store.
type ImageUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Ext returns the canonical file extension for the upload's MIME type.
func (i ImageUpload) Ext() string {
	switch i.ContentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	return ""
}

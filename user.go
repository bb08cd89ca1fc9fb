package topgg

import "time"

// Socials are the social links a user chose to display on their profile.
type Socials struct {
	GitHub    string `json:"github,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Reddit    string `json:"reddit,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	YouTube   string `json:"youtube,omitempty"`
}

// User is an account registered on the service.
type User struct {
	ID            Snowflake `json:"id"`
	Username      string    `json:"username"`
	Discriminator string    `json:"discriminator,omitempty"`
	Avatar        string    `json:"avatar,omitempty"`
	DefAvatar     string    `json:"defAvatar,omitempty"`
	Bio           string    `json:"bio,omitempty"`
	Banner        string    `json:"banner,omitempty"`
	Socials       *Socials  `json:"social,omitempty"`
	Color         string    `json:"color,omitempty"`
	Supporter     bool      `json:"supporter"`
	CertifiedDev  bool      `json:"certifiedDev"`
	Moderator     bool      `json:"mod"`
	WebModerator  bool      `json:"webMod"`
	Admin         bool      `json:"admin"`
}

// AvatarURL returns the CDN URL of the user's avatar image.
func (u *User) AvatarURL() string {
	return avatarURL(u.Avatar, u.Discriminator, u.ID)
}

// CreatedAt returns the account creation time derived from the user's ID.
func (u *User) CreatedAt() time.Time {
	return u.ID.Time()
}

// Voter is a user who has voted for a bot within the last 12 hours.
type Voter struct {
	ID       Snowflake `json:"id"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar,omitempty"`
}

// AvatarURL returns the CDN URL of the voter's avatar image.
func (v *Voter) AvatarURL() string {
	return avatarURL(v.Avatar, "", v.ID)
}

// CreatedAt returns the account creation time derived from the voter's ID.
func (v *Voter) CreatedAt() time.Time {
	return v.ID.Time()
}

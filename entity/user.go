package entity

const DefaultDisplayName = "Event Hub User"

type User struct {
	ID          string `json:"id" db:"user_id"`
	DisplayName string `json:"displayName" db:"display_name"`
	AvatarURL   string `json:"avatarUrl" db:"avatar_url"`
	Email       string `json:"email" db:"email"`
}

// Registrant is the display info attached to a ticket issuance.
type Registrant struct {
	UserID      string
	DisplayName string
	AvatarURL   string
}

func RegistrantFromUser(u User) Registrant {
	name := u.DisplayName
	if name == "" {
		name = DefaultDisplayName
	}
	return Registrant{
		UserID:      u.ID,
		DisplayName: name,
		AvatarURL:   u.AvatarURL,
	}
}

func AnonymousRegistrant(userID string) Registrant {
	return Registrant{
		UserID:      userID,
		DisplayName: DefaultDisplayName,
	}
}

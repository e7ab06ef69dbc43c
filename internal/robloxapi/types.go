package robloxapi

import (
	"fmt"
	"time"
)

type UserId int64

// Profile is a read-only snapshot of a Roblox account, captured at
// verification time and embedded into the application record
type Profile struct {
	Id          UserId
	Username    string
	DisplayName string
	Created     time.Time
	Description string
	AvatarUrl   string
}

func (profile *Profile) ProfileUrl() string {
	return fmt.Sprintf("https://www.roblox.com/users/%d/profile", profile.Id)
}

// AccountAge renders the age of the account as years and months
func (profile *Profile) AccountAge() string {
	days := int(time.Since(profile.Created).Hours() / 24)
	years := days / 365
	months := (days % 365) / 30
	return fmt.Sprintf("%d años, %d meses", years, months)
}

package robloxapi

import (
	"errors"
	"fmt"

	"purobot/internal/common"

	"github.com/rs/zerolog/log"
)

// Routes inside the Roblox web API
const ROUTE_USERNAME_SEARCH = "https://users.roblox.com/v1/usernames/users"
const ROUTE_USER = "https://users.roblox.com/v1/users/%d"
const ROUTE_AVATAR = "https://thumbnails.roblox.com/v1/users/avatar-headshot?userIds=%d&size=720x720&format=Png&isCircular=false"

// ErrNotFound means the username does not resolve to any Roblox account
var ErrNotFound = errors.New("roblox user not found")

type RobloxApi struct {
	proxy common.Proxy
}

func NewRobloxApi(restrictions []common.Restriction) RobloxApi {
	return RobloxApi{proxy: common.NewProxy(map[string]string{}, restrictions)}
}

// GetProfile resolves a username to a full profile snapshot:
// identity, creation date, free-text description and avatar.
// The avatar lookup is best effort
func (api *RobloxApi) GetProfile(username string) (Profile, error) {

	userid, err := api.getUserId(username)
	if err != nil {
		return Profile{}, err
	}

	// Detailed user info
	url := fmt.Sprintf(ROUTE_USER, userid)
	data := api.proxy.Get(url, true)
	if data == nil {
		return Profile{}, fmt.Errorf("could not fetch user info for roblox id %d", userid)
	}
	profile, err := UnmarshalProfile(data)
	if err != nil {
		return Profile{}, err
	}

	// Avatar thumbnail
	url = fmt.Sprintf(ROUTE_AVATAR, userid)
	if data := api.proxy.Get(url, false); data != nil {
		avatarUrl, err := UnmarshalAvatarUrl(data)
		if err != nil {
			log.Debug().Msg(fmt.Sprintf("Avatar response for roblox id %d is not correctly formatted", userid))
		} else {
			profile.AvatarUrl = avatarUrl
		}
	}

	log.Debug().Msg(fmt.Sprintf("Fetched roblox profile %s (id %d)", profile.Username, profile.Id))
	return profile, nil
}

func (api *RobloxApi) getUserId(username string) (UserId, error) {

	body := map[string]any{
		"usernames":          []string{username},
		"excludeBannedUsers": true,
	}
	data := api.proxy.PostJson(ROUTE_USERNAME_SEARCH, body, true)
	if data == nil {
		return 0, fmt.Errorf("could not search roblox username %s", username)
	}

	userid, found, err := UnmarshalUserId(data)
	if err != nil {
		return 0, err
	}
	if !found {
		log.Debug().Msg(fmt.Sprintf("No roblox account found for username %s", username))
		return 0, ErrNotFound
	}

	return userid, nil
}

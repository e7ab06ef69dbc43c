package robloxapi

import (
	"encoding/json"
	"time"
)

func UnmarshalUserId(data []byte) (UserId, bool, error) {

	var raw struct {
		Data []struct {
			Id UserId
		}
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, false, err
	}
	if len(raw.Data) == 0 {
		return 0, false, nil
	}

	return raw.Data[0].Id, true, nil
}

func UnmarshalProfile(data []byte) (Profile, error) {

	var raw struct {
		Id          UserId
		Name        string
		DisplayName string
		Description string
		Created     time.Time
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Profile{}, err
	}

	return Profile{
		Id:          raw.Id,
		Username:    raw.Name,
		DisplayName: raw.DisplayName,
		Description: raw.Description,
		Created:     raw.Created,
	}, nil
}

func UnmarshalAvatarUrl(data []byte) (string, error) {

	var raw struct {
		Data []struct {
			ImageUrl string
		}
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", err
	}
	if len(raw.Data) == 0 {
		return "", nil
	}

	return raw.Data[0].ImageUrl, nil
}

package profile

import "turn-notify/internal/domain/entity"

// DTO is the JSON form of a binding.
type DTO struct {
	ID       int64  `json:"id"`
	Platform string `json:"platform"`
	BotID    string `json:"bot_id"`
	GuildID  string `json:"guild_id"`
	Notify   bool   `json:"notify"`
	Interval int    `json:"interval"`
}

func toDTO(p *entity.Profile) DTO {
	return DTO{
		ID:       p.ID,
		Platform: p.Platform,
		BotID:    p.BotID,
		GuildID:  p.GuildID,
		Notify:   p.Notify,
		Interval: entity.ClampInterval(p.Interval),
	}
}

type listResponse struct {
	Profiles []DTO `json:"profiles"`
}

type bindResponse struct {
	ID      int64 `json:"id"`
	Rebound bool  `json:"rebound"`
}

type toggleResponse struct {
	Updated  int  `json:"updated"`
	Notify   bool `json:"notify"`
	Interval int  `json:"interval"`
}

type notifyRequest struct {
	Enabled *bool `json:"enabled"`
}

type intervalRequest struct {
	Seconds *int `json:"seconds"`
}

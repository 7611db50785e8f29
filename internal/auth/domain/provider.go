package domain

import (
	"errors"
	"fmt"
)

// ExternalProfile is the normalized shape every identity provider produces.
// The orchestrator only ever consumes this; provider-specific payload quirks
// stay inside the provider implementations.
type ExternalProfile struct {
	DisplayName string
	AvatarURL   string
	ExternalID  string
}

// IdentityProvider normalizes a raw provider payload (decoded userinfo
// claims) into an ExternalProfile.
type IdentityProvider interface {
	Name() string
	Normalize(raw map[string]any) (ExternalProfile, error)
}

var ErrProviderPayload = errors.New("domain: incomplete provider payload")

// GoogleProvider maps Google userinfo claims.
type GoogleProvider struct{}

func (GoogleProvider) Name() string { return "google" }

func (GoogleProvider) Normalize(raw map[string]any) (ExternalProfile, error) {
	id, _ := raw["id"].(string)
	if id == "" {
		return ExternalProfile{}, ErrProviderPayload
	}
	name, _ := raw["name"].(string)
	picture, _ := raw["picture"].(string)

	return ExternalProfile{
		DisplayName: name,
		AvatarURL:   picture,
		ExternalID:  id,
	}, nil
}

// DiscordProvider maps Discord user payloads, including the legacy
// username#discriminator display form and CDN avatar URLs.
type DiscordProvider struct{}

func (DiscordProvider) Name() string { return "discord" }

func (DiscordProvider) Normalize(raw map[string]any) (ExternalProfile, error) {
	id, _ := raw["id"].(string)
	if id == "" {
		return ExternalProfile{}, ErrProviderPayload
	}

	username, _ := raw["username"].(string)
	discriminator, _ := raw["discriminator"].(string)
	display := username
	if discriminator != "" && discriminator != "0" {
		display = fmt.Sprintf("%s#%s", username, discriminator)
	}

	var avatar string
	if hash, _ := raw["avatar"].(string); hash != "" {
		avatar = fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", id, hash)
	}

	return ExternalProfile{
		DisplayName: display,
		AvatarURL:   avatar,
		ExternalID:  id,
	}, nil
}

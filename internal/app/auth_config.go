package app

import (
	"github.com/opencallhq/opencall/internal/auth"
	"github.com/opencallhq/opencall/internal/database"
)

// JWTServiceConfig maps the auth section onto the JWT service configuration.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: c.JWT.TTL,
	}
}

// AdminSeed maps the admin section onto the first-boot seed.
func (c AuthConfig) AdminSeed() database.AdminSeed {
	return database.AdminSeed{
		Username: c.Admin.Username,
		Email:    c.Admin.Email,
		Password: c.Admin.Password,
	}
}

// Package config holds the application configuration container loaded once
// at startup via go-config. Getters keep callers decoupled from the struct
// layout so the auth core can depend on a narrow interface.
package config

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type BaseConfig struct {
	App         App         `json:"app" koanf:"app"`
	Auth        Auth        `json:"auth" koanf:"auth"`
	Server      Server      `json:"server" koanf:"server"`
	Persistence Persistence `json:"persistence" koanf:"persistence"`
}

type App struct {
	Name  string `json:"name" koanf:"name"`
	Env   string `json:"env" koanf:"env"`
	Debug bool   `json:"debug" koanf:"debug"`
}

type Auth struct {
	SigningKey    string   `json:"signing_key" koanf:"signing_key"`
	SigningMethod string   `json:"signing_method" koanf:"signing_method"`
	ContextKey    string   `json:"context_key" koanf:"context_key"`
	TokenTTL      int      `json:"token_ttl" koanf:"token_ttl"` // milliseconds
	AuthScheme    string   `json:"auth_scheme" koanf:"auth_scheme"`
	Issuer        string   `json:"issuer" koanf:"issuer"`
	Audience      []string `json:"audience" koanf:"audience"`
}

type Server struct {
	Address string `json:"address" koanf:"address"`
}

type Persistence struct {
	Driver                string `json:"driver" koanf:"driver"`
	DSN                   string `json:"dsn" koanf:"dsn"`
	Debug                 bool   `json:"debug" koanf:"debug"`
	PingTimeoutExpression string `json:"ping_timeout" koanf:"ping_timeout"`
}

func (a BaseConfig) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Auth),
		validation.Field(&a.Persistence),
	)
}

func (a Auth) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.SigningKey, validation.Required),
		validation.Field(&a.TokenTTL, validation.Min(1)),
	)
}

func (p Persistence) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.DSN, validation.Required),
	)
}

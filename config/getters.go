package config

import (
	"fmt"
	"time"
)

func (a BaseConfig) GetApp() App {
	return a.App
}

func (a BaseConfig) GetAuth() Auth {
	return a.Auth
}

func (a BaseConfig) GetServer() Server {
	return a.Server
}

func (a BaseConfig) GetPersistence() Persistence {
	return a.Persistence
}

func (a App) GetName() string {
	if a.Name == "" {
		return "taskapi"
	}
	return a.Name
}

func (a App) GetEnv() string {
	if a.Env == "" {
		return "development"
	}
	return a.Env
}

func (a App) GetDebug() bool {
	return a.Debug
}

func (a Auth) GetSigningKey() string {
	return a.SigningKey
}

func (a Auth) GetSigningMethod() string {
	if a.SigningMethod == "" {
		return "HS256"
	}
	return a.SigningMethod
}

func (a Auth) GetContextKey() string {
	if a.ContextKey == "" {
		return "auth"
	}
	return a.ContextKey
}

// GetTokenTTL is the token lifetime in milliseconds
func (a Auth) GetTokenTTL() int {
	return a.TokenTTL
}

func (a Auth) GetAuthScheme() string {
	if a.AuthScheme == "" {
		return "Bearer"
	}
	return a.AuthScheme
}

func (a Auth) GetIssuer() string {
	return a.Issuer
}

func (a Auth) GetAudience() []string {
	return a.Audience
}

func (s Server) GetAddress() string {
	if s.Address == "" {
		return ":8080"
	}
	return s.Address
}

func (p Persistence) GetDriver() string {
	if p.Driver == "" {
		return "sqlite"
	}
	return p.Driver
}

func (p Persistence) GetDSN() string {
	return p.DSN
}

func (p Persistence) GetDebug() bool {
	return p.Debug
}

func (p Persistence) GetPingTimeout() time.Duration {
	if p.PingTimeoutExpression == "" {
		return 5 * time.Second
	}
	dur, err := time.ParseDuration(p.PingTimeoutExpression)
	if err != nil {
		panic(
			fmt.Sprintf("unable to parse time: expr %s", p.PingTimeoutExpression),
		)
	}
	return dur
}

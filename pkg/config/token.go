package config

type TokenConf struct {
	AccessTokenExpiryHour  int
	RefreshTokenExpiryHour int
	AccessTokenSecret      string
	RefreshTokenSecret     string
}

func NewTokenConf(c *Config) *TokenConf {
	return &TokenConf{
		AccessTokenExpiryHour:  c.Auth.AccessTokenExpiryHour,
		RefreshTokenExpiryHour: c.Auth.RefreshTokenExpiryHour,
		AccessTokenSecret:      c.Auth.AccessTokenSecret,
		RefreshTokenSecret:     c.Auth.RefreshTokenSecret,
	}
}

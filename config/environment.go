package config

import "os"

type Environment struct {
	IsDevelopment bool
	Domain        string
	CookieSecure  bool
	Port          string
}

var Env Environment

func init() {
	// No cookie domain means local development
	domain := os.Getenv("COOKIE_DOMAIN")
	isDev := domain == ""
	if isDev {
		domain = "localhost"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	Env = Environment{
		IsDevelopment: isDev,
		Domain:        domain,
		CookieSecure:  !isDev,
		Port:          port,
	}
}

package dnevnik

import (
	"os"

	"github.com/joho/godotenv"
)

const (
	EnvLogin    = "GOSUSLUGI_LOGIN"
	EnvPassword = "GOSUSLUGI_PASSWORD"
)

type Credentials struct {
	Login    string
	Password string
}

// LoadCredentials reads the gosuslugi login from the environment after
// loading the given .env files (or ./.env when none are given). Variables
// already set in the environment win over .env files, missing ones are
// left empty.
func LoadCredentials(envFiles ...string) Credentials {
	_ = godotenv.Load(envFiles...)
	return Credentials{
		Login:    os.Getenv(EnvLogin),
		Password: os.Getenv(EnvPassword),
	}
}

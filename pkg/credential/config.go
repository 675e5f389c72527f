package credential

type Config struct {
	BcryptCost int `env:"PASSWORD_BCRYPT_COST" envDefault:"12"`
}

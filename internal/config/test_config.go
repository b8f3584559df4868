package config

func LoadTestConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8081,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Name:     "adops_test",
			User:     "test_user",
			Password: "test_password",
		},
		JWT: JWTConfig{
			Secret:   "test-secret",
			TTLHours: 1,
		},
		Storage: StorageConfig{
			Provider: "local",
			BasePath: "/storage",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
		},
		Mail: MailConfig{
			From:                   "no-reply@adops.test",
			MaxPerRecipientPerHour: 5,
		},
		Scheduler: SchedulerConfig{
			StorageReconcileSpec: "*/5 * * * *",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
		},
	}
}

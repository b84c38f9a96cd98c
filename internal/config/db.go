package config

// DB holds the database configuration settings.
type DB struct {
	// Driver selects the gorm driver: "sqlite", "mysql" or "postgres".
	Driver   string
	Extras   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Path is the database file for the sqlite driver.
	Path string
}
